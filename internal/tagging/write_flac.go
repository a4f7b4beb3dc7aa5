package tagging

import (
	"fmt"
	"strconv"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

func writeFLAC(path string, t Tag) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}

	cmts := flacvorbis.New()
	fields := []struct{ key, value string }{
		{"TITLE", t.Title},
		{"ARTIST", t.Artist},
		{"ALBUM", t.Album},
		{"TRACKNUMBER", strconv.Itoa(t.TrackNumber)},
		{"DATE", t.Year},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := cmts.Add(field.key, field.value); err != nil {
			return fmt.Errorf("add %s: %w", field.key, err)
		}
	}
	cmtBlock := cmts.Marshal()

	// drop old comments, and old pictures when new artwork is provided
	meta := make([]*flac.MetaDataBlock, 0, len(f.Meta)+2)
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			continue
		}
		if block.Type == flac.Picture && len(t.Artwork) > 0 {
			continue
		}
		meta = append(meta, block)
	}
	meta = append(meta, &cmtBlock)

	if len(t.Artwork) > 0 {
		pic, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover,
			"Front Cover",
			t.Artwork,
			detectMimeType(t.Artwork),
		)
		if err != nil {
			return fmt.Errorf("create picture: %w", err)
		}
		picBlock := pic.Marshal()
		meta = append(meta, &picBlock)
	}
	f.Meta = meta

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}
