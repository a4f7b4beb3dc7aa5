package recognize

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mgpai22/setsplit/internal/audio"
	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/workpool"
)

// the excerpt used for a recheck: one minute starting at 30 seconds
var excerptWindow = []int{30, 90}

var ErrUnexpectedExcerptCount = errors.New("unexpected number of excerpt fragments")

// an identified (or unidentified) fragment
type Track struct {
	Position  int    // index in the original media
	FilePath  string // current location on disk
	Title     string
	Artist    string
	Album     string
	Year      string
	Rechecked bool // identification was retried on an excerpt
}

func (t Track) Identified() bool {
	return t.Title != ""
}

func (t Track) String() string {
	return fmt.Sprintf("Track %d at %s: title %q, artist %q, album %q, year %q",
		t.Position, t.FilePath, t.Title, t.Artist, t.Album, t.Year)
}

func (t *Track) apply(meta Metadata) {
	t.Title = meta.Title
	t.Artist = meta.Artist
	t.Album = meta.Album
	t.Year = meta.Year
}

type Stats struct {
	Total              int
	Recognized         int
	Rechecked          int
	RecoveredByRecheck int
}

// cuts excerpts out of a fragment; satisfied by *audio.Splitter
type Excerpter interface {
	Split(ctx context.Context, source string, starts []int, destDir string, cfg audio.SplitConfig) ([]string, error)
}

type Recognizer struct {
	identifier Identifier
	excerpter  Excerpter
	logger     *logging.Logger
	tempRoot   string
}

func New(identifier Identifier, excerpter Excerpter, logger *logging.Logger) *Recognizer {
	return &Recognizer{
		identifier: identifier,
		excerpter:  excerpter,
		logger:     logging.OrNop(logger),
	}
}

// sets the parent directory for recheck excerpts, the system temp dir by default
func (r *Recognizer) SetTempRoot(dir string) {
	r.tempRoot = dir
}

// outcome of the primary pass for one fragment
type primary struct {
	track Track
	err   error
}

// Recognize identifies every fragment and returns one Track per path in input
// order. Fragments the primary pass fails to identify get exactly one retry on
// an excerpt, run sequentially after the parallel pass.
func (r *Recognizer) Recognize(ctx context.Context, paths []string, workers int) ([]Track, Stats, error) {
	workers = workpool.Resolve(workers)
	r.logger.Debugw("Starting recognition",
		"fragments", len(paths),
		"workers", workers,
	)

	results := workpool.Map(ctx, paths, workers, func(ctx context.Context, i int, path string) primary {
		track, err := r.identify(ctx, i, path)
		return primary{track: track, err: err}
	})

	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	tracks := make([]Track, len(results))
	for i, res := range results {
		if res.err != nil {
			return nil, Stats{}, res.err
		}
		tracks[i] = res.track
	}

	stats := Stats{Total: len(tracks)}
	for i := range tracks {
		if !tracks[i].Identified() {
			rechecked, err := r.Recheck(ctx, tracks[i])
			if err != nil {
				return nil, Stats{}, err
			}
			tracks[i] = rechecked
		}

		if tracks[i].Identified() {
			stats.Recognized++
			if tracks[i].Rechecked {
				stats.RecoveredByRecheck++
			}
		}
		if tracks[i].Rechecked {
			stats.Rechecked++
		}
	}

	r.logger.Infow("Recognition complete",
		"total", stats.Total,
		"recognized", stats.Recognized,
		"rechecked", stats.Rechecked,
		"recovered", stats.RecoveredByRecheck,
	)

	return tracks, stats, nil
}

func (r *Recognizer) identify(ctx context.Context, position int, path string) (Track, error) {
	track := Track{Position: position, FilePath: path}

	meta, ok, err := r.identifier.Identify(ctx, path)
	if err != nil {
		return track, err
	}
	if !ok {
		r.logger.Warnw("Unable to recognize fragment", "path", path)
		return track, nil
	}

	track.apply(meta)
	r.logger.Debugw("Recognized fragment", "track", track.String())
	return track, nil
}

// Recheck retries identification of track on an excerpt of its fragment. When
// no excerpt can be cut the track is returned unchanged. Otherwise the result
// keeps the original path and position and carries the new metadata.
func (r *Recognizer) Recheck(ctx context.Context, track Track) (Track, error) {
	tmpDir, err := os.MkdirTemp(r.tempRoot, "setsplit-recheck-*")
	if err != nil {
		return track, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	excerpt, err := r.extractExcerpt(ctx, track.FilePath, tmpDir)
	if err != nil {
		return track, err
	}
	if excerpt == "" {
		r.logger.Debugw("Fragment too short for a recheck", "path", track.FilePath)
		return track, nil
	}

	r.logger.Debugw("Rechecking fragment", "path", track.FilePath, "excerpt", excerpt)

	meta, ok, err := r.identifier.Identify(ctx, excerpt)
	if err != nil {
		return track, err
	}

	rechecked := Track{
		Position:  track.Position,
		FilePath:  track.FilePath,
		Rechecked: true,
	}
	if ok {
		rechecked.apply(meta)
	}
	r.logger.Debugw("Rechecked fragment", "track", rechecked.String())
	return rechecked, nil
}

// returns the excerpt path, or "" when the fragment is too short
func (r *Recognizer) extractExcerpt(ctx context.Context, path, dir string) (string, error) {
	slots, err := r.excerpter.Split(ctx, path, excerptWindow, dir, audio.ExcerptConfig())
	if err != nil {
		return "", fmt.Errorf("failed to cut excerpt from %s: %w", path, err)
	}

	excerpts := audio.Compact(slots)
	switch len(excerpts) {
	case 0:
		return "", nil
	case 1, 2:
		// 1: fragment between 30s and 90s, 2: longer, window plus remainder
		return excerpts[0], nil
	default:
		return "", fmt.Errorf("%w: %s was split into %d fragments", ErrUnexpectedExcerptCount, path, len(excerpts))
	}
}
