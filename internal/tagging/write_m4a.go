package tagging

import (
	"fmt"

	"github.com/Sorrow446/go-mp4tag"
)

func writeM4A(path string, t Tag) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer mp4.Close()

	tags := &mp4tag.MP4Tags{
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		TrackNumber: safeInt16(t.TrackNumber),
		Date:        t.Year,
	}
	if len(t.Artwork) > 0 {
		tags.Pictures = []*mp4tag.MP4Picture{{Data: t.Artwork}}
	}

	if err := mp4.Write(tags, nil); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func safeInt16(n int) int16 {
	if n > 32767 {
		return 32767
	}
	if n < 0 {
		return 0
	}
	return int16(n)
}
