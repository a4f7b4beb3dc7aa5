// Package tagging writes the recognized song metadata into the fragment
// files. MP3 files get ID3v2.4 frames, FLAC, Opus and Ogg Vorbis files Vorbis
// comments, and MP4/M4A files iTunes atoms.
package tagging

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/recognize"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

var ErrUnsupportedFormat = errors.New("unsupported file format for tagging")

// Tag is the metadata written to a single file.
type Tag struct {
	Title       string
	Artist      string
	Album       string
	Year        string
	TrackNumber int
	Artwork     []byte
}

// FromTrack builds the tag for track, filling unknown values with
// placeholders. The track number is the 1-based position.
func FromTrack(track recognize.Track, artwork []byte) Tag {
	return Tag{
		Title:       orDefault(track.Title, UnknownTitle),
		Artist:      orDefault(track.Artist, UnknownArtist),
		Album:       orDefault(track.Album, UnknownAlbum),
		Year:        track.Year,
		TrackNumber: track.Position + 1,
		Artwork:     artwork,
	}
}

// Write stores t in the file at path, replacing any existing tags.
func Write(path string, t Tag) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return writeMP3(path, t)
	case ".flac":
		return writeFLAC(path, t)
	case ".opus", ".ogg", ".oga":
		return writeOgg(path, t)
	case ".m4a", ".mp4", ".m4b":
		return writeM4A(path, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// TagTracks tags every track. Files in a format that cannot be tagged are
// skipped with a warning; any other failure is returned.
func TagTracks(tracks []recognize.Track, thumbnailPath string, logger *logging.Logger) error {
	logger = logging.OrNop(logger)

	var artwork []byte
	if thumbnailPath != "" {
		data, err := os.ReadFile(thumbnailPath)
		if err != nil {
			return fmt.Errorf("failed to read thumbnail: %w", err)
		}
		artwork = data
	}
	logger.Debugw("Tagging tracks", "count", len(tracks), "artwork_bytes", len(artwork))

	for _, track := range tracks {
		err := Write(track.FilePath, FromTrack(track, artwork))
		if errors.Is(err, ErrUnsupportedFormat) {
			logger.Warnw("Skipping tags", "path", track.FilePath, "reason", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to tag %s: %w", track.FilePath, err)
		}
		logger.Debugw("Tagged track", "path", track.FilePath)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// detectMimeType normalizes artwork to jpeg or png.
func detectMimeType(data []byte) string {
	if http.DetectContentType(data) == "image/png" {
		return "image/png"
	}
	return "image/jpeg"
}
