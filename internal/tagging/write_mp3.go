package tagging

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

func writeMP3(path string, t Tag) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteAllFrames()

	tag.SetTitle(t.Title)
	tag.SetArtist(t.Artist)
	tag.SetAlbum(t.Album)
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(t.TrackNumber))

	// TDRC is the ID3v2.4 recording time
	if t.Year != "" {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, t.Year)
	}

	if len(t.Artwork) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectMimeType(t.Artwork),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     t.Artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}
