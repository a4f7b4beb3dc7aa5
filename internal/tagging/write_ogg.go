package tagging

import (
	"fmt"
	"strconv"

	"go.senan.xyz/taglib"
)

// writeOgg replaces the Vorbis comments of an Opus or Ogg Vorbis file.
func writeOgg(path string, t Tag) error {
	tags := map[string][]string{
		taglib.Title:       {t.Title},
		taglib.Artist:      {t.Artist},
		taglib.Album:       {t.Album},
		taglib.TrackNumber: {strconv.Itoa(t.TrackNumber)},
	}
	if t.Year != "" {
		tags[taglib.Date] = []string{t.Year}
	}

	// Clear drops every existing comment not in tags
	if err := taglib.WriteTags(path, tags, taglib.Clear); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}

	if len(t.Artwork) > 0 {
		if err := taglib.WriteImage(path, t.Artwork); err != nil {
			return fmt.Errorf("write cover art: %w", err)
		}
	}
	return nil
}
