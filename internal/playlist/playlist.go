package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgpai22/setsplit/internal/recognize"
	"github.com/mgpai22/setsplit/internal/tagging"
)

// where playlists get written
type Options struct {
	SameFolder   bool // next to the tracks
	ParentFolder bool // one level up, entries prefixed with the track folder
}

// WriteM3U writes an extended M3U playlist of tracks to w. Every entry is the
// track's file name prefixed with prefix.
func WriteM3U(w io.Writer, tracks []recognize.Track, prefix string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#EXTM3U")
	for _, track := range tracks {
		// -1: unknown length
		fmt.Fprintf(bw, "#EXTINF:-1,%s - %s\n",
			orDefault(track.Artist, tagging.UnknownArtist),
			orDefault(track.Title, tagging.UnknownTitle),
		)
		fmt.Fprintf(bw, "%s%s\n", prefix, filepath.Base(track.FilePath))
	}
	return bw.Flush()
}

// Create writes the playlists requested by opts and returns their paths. The
// playlist is named after the folder holding the tracks.
func Create(tracks []recognize.Track, opts Options) ([]string, error) {
	if !opts.SameFolder && !opts.ParentFolder {
		return nil, nil
	}
	if len(tracks) == 0 {
		return nil, errors.New("no tracks for playlist")
	}

	folder := filepath.Dir(tracks[0].FilePath)
	name := filepath.Base(folder) + ".m3u"

	var written []string
	if opts.SameFolder {
		path := filepath.Join(folder, name)
		if err := writeFile(path, tracks, ""); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if opts.ParentFolder {
		path := filepath.Join(filepath.Dir(folder), name)
		if err := writeFile(path, tracks, filepath.Base(folder)+"/"); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, tracks []recognize.Track, prefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	if err := WriteM3U(f, tracks, prefix); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return f.Close()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
