// Package pipeline runs the stages of a setsplit job in order: acquire the
// media, split it at the requested timestamps, identify every fragment, then
// rename, tag and list the resulting tracks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/mgpai22/setsplit/internal/audio"
	"github.com/mgpai22/setsplit/internal/config"
	"github.com/mgpai22/setsplit/internal/deps"
	"github.com/mgpai22/setsplit/internal/download"
	"github.com/mgpai22/setsplit/internal/ffmpeg"
	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/playlist"
	"github.com/mgpai22/setsplit/internal/recognize"
	"github.com/mgpai22/setsplit/internal/rename"
	"github.com/mgpai22/setsplit/internal/tagging"
	"github.com/mgpai22/setsplit/internal/timestamps"
	"github.com/mgpai22/setsplit/internal/video"
)

const lockFileName = ".setsplit.lock"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBusy           = errors.New("destination in use by another run")
	ErrNoFragments    = errors.New("no fragments produced")
)

type Downloader interface {
	Fetch(ctx context.Context, url, destDir string, opts download.Options) (download.Result, error)
}

type Splitter interface {
	Split(ctx context.Context, source string, starts []int, destDir string, cfg audio.SplitConfig) ([]string, error)
}

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string, opts video.ExtractAudioOptions) error
}

type Recognizer interface {
	Recognize(ctx context.Context, paths []string, workers int) ([]recognize.Track, recognize.Stats, error)
}

// Request describes one full run.
type Request struct {
	Media          string // local path or URL
	Starts         []int  // track start markers in seconds
	TimestampsPath string // empty when the markers came from stdin
	Dest           string
	UseThumbnail   *bool  // nil: on for remote media
	ThumbnailPath  string // explicit artwork, implies UseThumbnail
	AudioFormat    string // remote media only; empty uses the configured format
}

// Result is what a run produced.
type Result struct {
	Dest          string
	MediaDir      string
	MediaPath     string
	ThumbnailPath string
	Requested     int // number of start markers
	Tracks        []recognize.Track
	Stats         recognize.Stats
	Playlists     []string
}

type Orchestrator struct {
	cfg        *config.Config
	logger     *logging.Logger
	downloader Downloader
	splitter   Splitter
	recognizer Recognizer
	extractor  AudioExtractor

	checkTools func(context.Context, []deps.Requirement) []deps.Status
	probe      func(context.Context, string) (time.Duration, error)
}

func New(cfg *config.Config, downloader Downloader, splitter Splitter, recognizer Recognizer, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		logger:     logging.OrNop(logger),
		downloader: downloader,
		splitter:   splitter,
		recognizer: recognizer,
		extractor:  video.NewProcessor(""),
		checkTools: deps.CheckBinaries,
		probe:      audio.Duration,
	}
}

// Build wires the ffmpeg, songrec and yt-dlp backed stages from cfg.
func Build(cfg *config.Config, logger *logging.Logger) *Orchestrator {
	ffmpegPath, err := ffmpeg.FFmpegPath()
	if err != nil {
		// reported by the dependency check before any stage runs
		ffmpegPath = cfg.Tools.FFmpeg
	}
	splitter := audio.NewSplitter(audio.NewFFmpegTranscoder(ffmpegPath), logger)
	recognizer := recognize.New(recognize.NewSongRec(cfg.Tools.SongRec), splitter, logger)
	o := New(cfg, download.New(cfg.Tools.YtDlp, logger), splitter, recognizer, logger)
	o.extractor = video.NewProcessor(ffmpegPath)
	return o
}

// Requirements lists the tools a run needs. yt-dlp is only needed for remote
// media.
func Requirements(cfg *config.Config, remote bool) []deps.Requirement {
	reqs := []deps.Requirement{
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, VersionFlag: "-version", Description: "splits the media into fragments"},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, VersionFlag: "-version", Description: "sanity checks the media duration", Optional: true},
		{Name: "songrec", Command: cfg.Tools.SongRec, VersionFlag: "--version", Description: "identifies fragments"},
	}
	if remote {
		reqs = append(reqs, deps.Requirement{
			Name: "yt-dlp", Command: cfg.Tools.YtDlp, VersionFlag: "--version", Description: "downloads remote media",
		})
	}
	return reqs
}

func (o *Orchestrator) require(ctx context.Context, reqs []deps.Requirement) error {
	statuses := o.checkTools(ctx, reqs)
	for _, s := range statuses {
		if s.Available {
			o.logger.Debugw("Found tool", "name", s.Name, "path", s.Command, "version", s.Version)
		} else if s.Optional {
			o.logger.Warnw("Optional tool unavailable", "name", s.Name, "detail", s.Detail)
		}
	}
	return deps.Require(statuses)
}

// ResolveDest picks the output directory: an explicit one, else the directory
// of local media, else the directory of the timestamps file.
func ResolveDest(req Request) (string, error) {
	switch {
	case req.Dest != "":
		return filepath.Abs(req.Dest)
	case !download.IsRemote(req.Media):
		return filepath.Abs(filepath.Dir(req.Media))
	case req.TimestampsPath != "":
		return filepath.Abs(filepath.Dir(req.TimestampsPath))
	}
	return "", fmt.Errorf("%w: remote media with timestamps from stdin requires a destination", ErrInvalidRequest)
}

// Validate rejects flag combinations that cannot work before anything runs.
func Validate(req Request) error {
	remote := download.IsRemote(req.Media)
	if len(req.Starts) == 0 {
		return fmt.Errorf("%w: no timestamps found", ErrInvalidRequest)
	}
	if !remote {
		if req.UseThumbnail != nil && *req.UseThumbnail {
			return fmt.Errorf("%w: can only fetch a thumbnail for a media URL", ErrInvalidRequest)
		}
		if req.AudioFormat != "" {
			return fmt.Errorf("%w: audio format can only be set for a media URL", ErrInvalidRequest)
		}
		if _, err := os.Stat(req.Media); err != nil {
			return fmt.Errorf("%w: media %s: %w", ErrInvalidRequest, req.Media, err)
		}
	} else if req.AudioFormat != "" && !video.Supported(req.AudioFormat) {
		return fmt.Errorf("%w: unsupported audio format %q", ErrInvalidRequest, req.AudioFormat)
	}
	if req.ThumbnailPath != "" {
		f, err := os.Open(req.ThumbnailPath)
		if err != nil {
			return fmt.Errorf("%w: thumbnail %s is not readable: %w", ErrInvalidRequest, req.ThumbnailPath, err)
		}
		_ = f.Close()
	}
	if _, err := ResolveDest(req); err != nil {
		return err
	}
	return nil
}

// lock takes the advisory lock on dir, creating dir first.
func lock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}
	fl := flock.New(filepath.Join(dir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, dir)
	}
	return fl, nil
}

// unlock removes the lock file while still holding it, then releases it.
func (o *Orchestrator) unlock(fl *flock.Flock) {
	if err := os.Remove(fl.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		o.logger.Debugw("Failed to remove lock file", "path", fl.Path(), "error", err)
	}
	if err := fl.Unlock(); err != nil {
		o.logger.Warnw("Failed to release lock", "path", fl.Path(), "error", err)
	}
}

// Run executes the whole pipeline for req.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	remote := download.IsRemote(req.Media)
	if err := o.require(ctx, Requirements(o.cfg, remote)); err != nil {
		return nil, err
	}

	dest, err := ResolveDest(req)
	if err != nil {
		return nil, err
	}
	fl, err := lock(dest)
	if err != nil {
		return nil, err
	}
	defer o.unlock(fl)

	result := &Result{Dest: dest, Requested: len(req.Starts)}

	media, err := o.acquire(ctx, req, dest)
	if err != nil {
		return nil, err
	}
	if audio.IsVideoFile(media.path) {
		if media.path, err = o.extractAudio(ctx, media.path); err != nil {
			return nil, err
		}
	}
	result.MediaDir = media.dir
	result.MediaPath = media.path
	result.ThumbnailPath = media.thumbnail

	o.checkDuration(ctx, media.path, req.Starts)

	o.logger.Infow("Splitting media",
		"media", media.path,
		"fragments", len(req.Starts),
	)
	paths, err := o.splitter.Split(ctx, media.path, req.Starts, media.dir, o.cfg.SplitConfig())
	if err != nil {
		return nil, fmt.Errorf("split failed: %w", err)
	}
	fragments := audio.Compact(paths)
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}
	if dropped := len(paths) - len(fragments); dropped > 0 {
		o.logger.Warnw("Some fragments failed", "dropped", dropped, "produced", len(fragments))
	}

	tracks, stats, err := o.recognizer.Recognize(ctx, fragments, o.cfg.Recognize.Workers)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}
	result.Stats = stats

	tracks, err = rename.Tracks(tracks, media.path, o.cfg.Rename.Pattern, o.logger)
	if err != nil {
		return nil, err
	}
	result.Tracks = tracks

	if err := tagging.TagTracks(tracks, media.thumbnail, o.logger); err != nil {
		return nil, err
	}

	result.Playlists, err = playlist.Create(tracks, playlist.Options{
		SameFolder:   o.cfg.Playlist.SameFolder,
		ParentFolder: o.cfg.Playlist.ParentFolder,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Infow("Done",
		"media_dir", media.dir,
		"tracks", len(tracks),
		"recognized", stats.Recognized,
	)
	return result, nil
}

// Split only cuts media into fragments inside dest.
func (o *Orchestrator) Split(ctx context.Context, media string, starts []int, dest string) ([]string, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: no timestamps found", ErrInvalidRequest)
	}
	if err := o.require(ctx, Requirements(o.cfg, false)[:1]); err != nil {
		return nil, err
	}
	dest, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}
	fl, err := lock(dest)
	if err != nil {
		return nil, err
	}
	defer o.unlock(fl)

	o.checkDuration(ctx, media, starts)
	paths, err := o.splitter.Split(ctx, media, starts, dest, o.cfg.SplitConfig())
	if err != nil {
		return nil, err
	}
	return audio.Compact(paths), nil
}

// Recognize only identifies the given files.
func (o *Orchestrator) Recognize(ctx context.Context, paths []string) ([]recognize.Track, recognize.Stats, error) {
	reqs := Requirements(o.cfg, false)
	if err := o.require(ctx, []deps.Requirement{reqs[0], reqs[2]}); err != nil {
		return nil, recognize.Stats{}, err
	}
	return o.recognizer.Recognize(ctx, paths, o.cfg.Recognize.Workers)
}

// extractAudio writes the audio track of a video next to it and returns the
// audio path, so fragments come out as taggable audio.
func (o *Orchestrator) extractAudio(ctx context.Context, videoPath string) (string, error) {
	opts := video.DefaultExtractAudioOptions()
	opts.Format = o.cfg.Download.AudioFormat
	output := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "." + video.Extension(opts.Format)

	o.logger.Infow("Extracting audio from video", "video", videoPath, "output", output)
	if err := o.extractor.ExtractAudio(ctx, videoPath, output, opts); err != nil {
		return "", fmt.Errorf("failed to extract audio: %w", err)
	}
	return output, nil
}

// warns about markers past the end of the media; skipped without ffprobe
func (o *Orchestrator) checkDuration(ctx context.Context, media string, starts []int) {
	duration, err := o.probe(ctx, media)
	if err != nil {
		o.logger.Debugw("Skipping duration check", "error", err)
		return
	}
	for _, start := range starts {
		if time.Duration(start)*time.Second >= duration {
			o.logger.Warnw("Timestamp past end of media",
				"timestamp", timestamps.Format(start),
				"duration", duration.Round(time.Second).String(),
			)
		}
	}
}
