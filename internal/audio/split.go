package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/setsplit/internal/ffmpeg"
	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/timestamps"
	"github.com/mgpai22/setsplit/internal/workpool"
)

// fade-out start used for the open-ended last fragment, never reached
const openEndFadeStart int64 = 0xffffffff

var ErrInvalidPattern = errors.New("split file pattern must contain at least one %n")

// settings shared read-only by every split worker
type SplitConfig struct {
	StartOffset int    // seconds added to every fragment start
	EndOffset   int    // seconds subtracted from every fragment end
	FadeIn      uint   // fade-in length in seconds, 0 disables
	FadeOut     uint   // fade-out length in seconds, 0 disables
	Workers     int    // parallel transcodes, 0 = one per CPU
	NamePattern string // %n = fragment index, %f = media name
}

func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		StartOffset: 1,
		EndOffset:   -1,
		FadeIn:      2,
		FadeOut:     3,
		Workers:     0,
		NamePattern: "fragment_%n",
	}
}

// config used to cut recognition excerpts: no fades, no offsets
func ExcerptConfig() SplitConfig {
	return SplitConfig{NamePattern: "temp_cut_fragment_%n"}
}

func (c SplitConfig) HasFade() bool {
	return c.FadeIn != 0 || c.FadeOut != 0
}

func (c SplitConfig) Validate() error {
	if !strings.Contains(c.NamePattern, "%n") {
		return ErrInvalidPattern
	}
	if c.Workers < 0 {
		return fmt.Errorf("split workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// one planned cut of the source media
type Fragment struct {
	Index  int
	Start  int
	End    int
	HasEnd bool // false for the last fragment, which runs to the end of the source
	Name   string
}

func (f Fragment) String() string {
	end := "<END>"
	if f.HasEnd {
		end = timestamps.Format(f.End)
	}
	return fmt.Sprintf("%s to %s", timestamps.Format(f.Start), end)
}

// builds the file name for fragment index from pattern, keeping the source extension
func FragmentName(pattern, sourcePath string, index int) string {
	ext := filepath.Ext(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(sourcePath), ext)
	r := strings.NewReplacer("%n", strconv.Itoa(index), "%f", stem)
	return r.Replace(pattern) + ext
}

// Plan computes the cut for every timestamp index.
func Plan(sourcePath string, starts []int, cfg SplitConfig) []Fragment {
	fragments := make([]Fragment, len(starts))
	for i := range starts {
		f := Fragment{
			Index: i,
			Start: starts[i] + cfg.StartOffset,
			Name:  FragmentName(cfg.NamePattern, sourcePath, i),
		}
		if i < len(starts)-1 {
			f.End = starts[i+1] - cfg.EndOffset
			f.HasEnd = true
		}
		fragments[i] = f
	}
	return fragments
}

// afade filter for f, empty when fades are disabled
func FadeFilter(f Fragment, cfg SplitConfig) string {
	if !cfg.HasFade() {
		return ""
	}
	// the fade-out has to start early enough to finish exactly at the end
	fadeOutStart := openEndFadeStart
	if f.HasEnd {
		fadeOutStart = int64(f.End) - int64(cfg.FadeOut)
	}
	return fmt.Sprintf(
		"afade=t=in:st=%d:d=%d,afade=t=out:st=%d:d=%d",
		f.Start, cfg.FadeIn, fadeOutStart, cfg.FadeOut,
	)
}

// a single transcode handed to a Transcoder
type Job struct {
	Source string // absolute path of the media file
	Dir    string // directory the output is written into
	Name   string // output file name, relative to Dir
	Start  int
	End    int
	HasEnd bool
	Filter string
}

// runs one fragment cut
type Transcoder interface {
	Transcode(ctx context.Context, job Job) error
}

// transcoder backed by the ffmpeg binary
type FFmpegTranscoder struct {
	path string
}

// uses the given ffmpeg binary, or the resolved one when empty
func NewFFmpegTranscoder(path string) *FFmpegTranscoder {
	return &FFmpegTranscoder{path: path}
}

// ffmpeg arguments for job, without the binary name
func (t *FFmpegTranscoder) Args(job Job) []string {
	kwargs := ffmpeg.KwArgs{
		"ss": strconv.Itoa(job.Start),
	}
	if job.HasEnd {
		kwargs["to"] = strconv.Itoa(job.End)
	}
	if job.Filter != "" {
		kwargs["af"] = job.Filter
	}

	return ffmpeg.Input(job.Source).
		Output(job.Name, kwargs).
		GlobalArgs("-loglevel", "error", "-hide_banner").
		OverWriteOutput().
		GetArgs()
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, job Job) error {
	binary := t.path
	if binary == "" {
		resolved, err := ffmpegbin.FFmpegPath()
		if err != nil {
			return err
		}
		binary = resolved
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, t.Args(job)...)
	cmd.Dir = job.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"ffmpeg failed: %w: stdout: %s, stderr: %s",
			err,
			strings.TrimSpace(stdout.String()),
			strings.TrimSpace(stderr.String()),
		)
	}
	return nil
}

// cuts a media file into fragments at the given start times
type Splitter struct {
	transcoder Transcoder
	logger     *logging.Logger
}

func NewSplitter(transcoder Transcoder, logger *logging.Logger) *Splitter {
	return &Splitter{transcoder: transcoder, logger: logging.OrNop(logger)}
}

// Split cuts sourcePath into one fragment per start time inside destDir. The
// result has one slot per start time in the same order; a fragment whose
// transcode failed leaves its slot empty. Every other slot holds an absolute
// path to an existing file.
func (s *Splitter) Split(
	ctx context.Context,
	sourcePath string,
	starts []int,
	destDir string,
	cfg SplitConfig,
) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media path: %w", err)
	}
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("media file not readable: %w", err)
	}

	dir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination: %w", err)
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("destination not usable: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("destination is not a directory: %s", dir)
	}

	fragments := Plan(source, starts, cfg)
	workers := workpool.Resolve(cfg.Workers)

	s.logger.Debugw("Starting split",
		"source", source,
		"fragments", len(fragments),
		"workers", workers,
	)

	paths := workpool.Map(ctx, fragments, workers, func(ctx context.Context, _ int, f Fragment) string {
		return s.splitOne(ctx, source, dir, f, cfg)
	})

	produced := 0
	for _, p := range paths {
		if p != "" {
			produced++
		}
	}
	s.logger.Debugw("Split complete",
		"requested", len(fragments),
		"produced", produced,
	)

	return paths, nil
}

func (s *Splitter) splitOne(ctx context.Context, source, dir string, f Fragment, cfg SplitConfig) string {
	job := Job{
		Source: source,
		Dir:    dir,
		Name:   f.Name,
		Start:  f.Start,
		End:    f.End,
		HasEnd: f.HasEnd,
		Filter: FadeFilter(f, cfg),
	}

	s.logger.Debugw("Splitting fragment",
		"index", f.Index,
		"range", f.String(),
		"name", f.Name,
	)

	if err := s.transcoder.Transcode(ctx, job); err != nil {
		s.logger.Errorw("Failed processing fragment",
			"index", f.Index,
			"range", f.String(),
			"error", err,
		)
		return ""
	}

	path := filepath.Join(dir, f.Name)
	if _, err := os.Stat(path); err != nil {
		s.logger.Errorw("Fragment missing after transcode",
			"index", f.Index,
			"path", path,
			"error", err,
		)
		return ""
	}

	return path
}

// drops the empty slots left by failed fragments
func Compact(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
