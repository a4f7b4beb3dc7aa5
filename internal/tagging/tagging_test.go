package tagging

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/taglib"

	"github.com/mgpai22/setsplit/internal/recognize"
)

// a single MPEG frame header is enough for id3v2 to work with
func createTestMP3(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fragment_0.mp3")
	frame := make([]byte, 417)
	frame[0] = 0xff
	frame[1] = 0xfb
	frame[2] = 0x90
	require.NoError(t, os.WriteFile(path, frame, 0o600))
	return path
}

func createTestFLAC(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fragment_0.flac")
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-c:a", "flac", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	return path
}

// encodes one second of sine with ffmpeg, skipping when the codec is missing
func createTestAudio(t *testing.T, dir, name, codec string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-c:a", codec, path)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg cannot encode %s: %v", codec, err)
	}
	return path
}

func TestFromTrack(t *testing.T) {
	tag := FromTrack(recognize.Track{Position: 2}, nil)
	assert.Equal(t, UnknownTitle, tag.Title)
	assert.Equal(t, UnknownArtist, tag.Artist)
	assert.Equal(t, UnknownAlbum, tag.Album)
	assert.Equal(t, 3, tag.TrackNumber)
	assert.Empty(t, tag.Year)

	tag = FromTrack(recognize.Track{Position: 0, Title: "T", Artist: "A", Album: "L", Year: "1999"}, []byte{1})
	assert.Equal(t, Tag{Title: "T", Artist: "A", Album: "L", Year: "1999", TrackNumber: 1, Artwork: []byte{1}}, tag)
}

func TestWriteMP3(t *testing.T) {
	path := createTestMP3(t, t.TempDir())

	require.NoError(t, Write(path, Tag{
		Title:       "Windowlicker",
		Artist:      "Aphex Twin",
		Album:       "Windowlicker EP",
		Year:        "1999",
		TrackNumber: 4,
		Artwork:     []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	}))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	assert.Equal(t, "Windowlicker", tag.Title())
	assert.Equal(t, "Aphex Twin", tag.Artist())
	assert.Equal(t, "Windowlicker EP", tag.Album())
	assert.Equal(t, "4", tag.GetTextFrame(tag.CommonID("Track number/Position in set")).Text)
	assert.Equal(t, "1999", tag.GetTextFrame("TDRC").Text)

	pictures := tag.GetFrames(tag.CommonID("Attached picture"))
	require.Len(t, pictures, 1)
	pic, ok := pictures[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, "image/png", pic.MimeType)
}

func TestWriteMP3ReplacesTags(t *testing.T) {
	path := createTestMP3(t, t.TempDir())
	require.NoError(t, Write(path, Tag{Title: "Old", Year: "1980", TrackNumber: 1}))
	require.NoError(t, Write(path, Tag{Title: "New", TrackNumber: 2}))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	assert.Equal(t, "New", tag.Title())
	assert.Empty(t, tag.GetTextFrame("TDRC").Text)
}

func TestWriteFLAC(t *testing.T) {
	path := createTestFLAC(t, t.TempDir())

	require.NoError(t, Write(path, Tag{Title: "First", TrackNumber: 1}))
	require.NoError(t, Write(path, Tag{Title: "Second", Artist: "A", Year: "2004", TrackNumber: 7}))

	f, err := flac.ParseFile(path)
	require.NoError(t, err)

	var blocks []*flac.MetaDataBlock
	for _, meta := range f.Meta {
		if meta.Type == flac.VorbisComment {
			blocks = append(blocks, meta)
		}
	}
	require.Len(t, blocks, 1)

	cmts, err := flacvorbis.ParseFromMetaDataBlock(*blocks[0])
	require.NoError(t, err)

	title, err := cmts.Get("TITLE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Second"}, title)

	track, err := cmts.Get("TRACKNUMBER")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, track)
}

func TestWriteTaglibFormats(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		codec       string
		trackNumber bool
	}{
		{"m4a", "fragment_0.m4a", "aac", false},
		{"opus", "fragment_0.opus", "libopus", true},
		{"ogg vorbis", "fragment_0.ogg", "libvorbis", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTestAudio(t, t.TempDir(), tt.file, tt.codec)

			require.NoError(t, Write(path, Tag{Title: "Old", Album: "Old Album", TrackNumber: 1}))
			require.NoError(t, Write(path, Tag{
				Title:       "Windowlicker",
				Artist:      "Aphex Twin",
				Album:       "Windowlicker EP",
				Year:        "1999",
				TrackNumber: 4,
			}))

			tags, err := taglib.ReadTags(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"Windowlicker"}, tags[taglib.Title])
			assert.Equal(t, []string{"Aphex Twin"}, tags[taglib.Artist])
			assert.Equal(t, []string{"Windowlicker EP"}, tags[taglib.Album])
			assert.Equal(t, []string{"1999"}, tags[taglib.Date])
			if tt.trackNumber {
				assert.Equal(t, []string{"4"}, tags[taglib.TrackNumber])
			}
		})
	}
}

func TestWriteUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragment_0.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	assert.ErrorIs(t, Write(path, Tag{}), ErrUnsupportedFormat)
	assert.Error(t, Write(filepath.Join(t.TempDir(), "missing.mp3"), Tag{}))
}

func TestTagTracks(t *testing.T) {
	dir := t.TempDir()
	mp3 := createTestMP3(t, dir)
	wav := filepath.Join(dir, "fragment_1.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFF"), 0o600))

	thumb := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(thumb, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o600))

	tracks := []recognize.Track{
		{Position: 0, FilePath: mp3, Title: "A"},
		{Position: 1, FilePath: wav},
	}
	require.NoError(t, TagTracks(tracks, thumb, nil))

	tag, err := id3v2.Open(mp3, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "A", tag.Title())
	assert.Equal(t, UnknownArtist, tag.Artist())
	assert.Len(t, tag.GetFrames(tag.CommonID("Attached picture")), 1)

	assert.Error(t, TagTracks(tracks, filepath.Join(dir, "missing.jpg"), nil))
}
