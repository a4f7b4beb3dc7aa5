// Package rename moves recognized fragments to file names built from a
// template.
//
// Supported placeholders:
//
//	%t  title
//	%a  artist
//	%l  album
//	%n  track number
//	%N  track number, zero padded to the width of the track count
//	%m  media file name without extension
//
// The fragment's extension is appended automatically.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/recognize"
	"github.com/mgpai22/setsplit/internal/tagging"
)

// File name for track from pattern. total is the number of tracks and sets
// the width of %N.
func FileName(pattern string, track recognize.Track, total int, mediaPath string) string {
	number := track.Position + 1
	width := len(strconv.Itoa(total))
	mediaName := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))

	r := strings.NewReplacer(
		"%n", strconv.Itoa(number),
		"%N", fmt.Sprintf("%0*d", width, number),
		"%t", sanitize(orDefault(track.Title, tagging.UnknownTitle)),
		"%a", sanitize(orDefault(track.Artist, tagging.UnknownArtist)),
		"%l", sanitize(orDefault(track.Album, tagging.UnknownAlbum)),
		"%m", sanitize(mediaName),
	)
	return r.Replace(pattern) + filepath.Ext(track.FilePath)
}

// Tracks renames every track inside the directory of mediaPath and returns
// the tracks with their updated FilePath. Two tracks resolving to the same
// name is an error and nothing is moved in that case.
func Tracks(tracks []recognize.Track, mediaPath, pattern string, logger *logging.Logger) ([]recognize.Track, error) {
	logger = logging.OrNop(logger)
	dir := filepath.Dir(mediaPath)

	targets := make([]string, len(tracks))
	seen := make(map[string]int, len(tracks))
	for i, track := range tracks {
		target := filepath.Join(dir, FileName(pattern, track, len(tracks), mediaPath))
		if j, dup := seen[target]; dup {
			return nil, fmt.Errorf("tracks %d and %d would both be renamed to %s", tracks[j].Position+1, track.Position+1, target)
		}
		seen[target] = i
		targets[i] = target
	}

	// Targets may be the current names of other tracks, so every file is
	// first moved aside to a name no track uses, then into place.
	staged := make([]string, len(tracks))
	for i, track := range tracks {
		staged[i] = filepath.Join(dir, fmt.Sprintf(".setsplit-rename-%d%s", i, filepath.Ext(track.FilePath)))
		if err := os.Rename(track.FilePath, staged[i]); err != nil {
			return nil, fmt.Errorf("failed to rename %s: %w", track.FilePath, err)
		}
	}

	renamed := make([]recognize.Track, len(tracks))
	for i, track := range tracks {
		logger.Debugw("Renaming track", "from", track.FilePath, "to", targets[i])
		if err := os.Rename(staged[i], targets[i]); err != nil {
			return nil, fmt.Errorf("failed to rename %s: %w", track.FilePath, err)
		}
		track.FilePath = targets[i]
		renamed[i] = track
	}
	return renamed, nil
}

// makes a metadata value safe to use as part of a file name
func sanitize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 32 || r == 127:
			return -1
		}
		return r
	}, s)
	s = strings.TrimLeft(strings.TrimSpace(s), ".")
	if s == "" {
		return "_"
	}
	return s
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
