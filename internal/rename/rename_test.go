package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/setsplit/internal/recognize"
)

func TestFileName(t *testing.T) {
	track := recognize.Track{
		Position: 4,
		FilePath: "/sets/live/fragment_4.mp3",
		Title:    "Song",
		Artist:   "Band",
		Album:    "Record",
	}

	tests := []struct {
		name    string
		pattern string
		total   int
		want    string
	}{
		{"default", "%N - %t", 12, "05 - Song.mp3"},
		{"unpadded", "%n %a - %t", 12, "5 Band - Song.mp3"},
		{"single digit count", "%N", 9, "5.mp3"},
		{"hundred tracks", "%N", 100, "005.mp3"},
		{"album and media", "%m/%l", 5, "live_set/Record.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FileName(tt.pattern, track, tt.total, "/sets/live/live_set.mp3")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileNameUnknownAndSanitized(t *testing.T) {
	unknown := recognize.Track{Position: 0, FilePath: "/d/fragment_0.flac"}
	assert.Equal(t, "1 - Unknown Artist - Unknown Title.flac", FileName("%n - %a - %t", unknown, 3, "/d/set.flac"))

	slashy := recognize.Track{Position: 0, FilePath: "/d/f.mp3", Title: "AC/DC\x00 live", Artist: "..Hidden"}
	assert.Equal(t, "AC_DC live - Hidden.mp3", FileName("%t - %a", slashy, 1, "/d/set.mp3"))
}

func TestTracks(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "set.mp3")

	var tracks []recognize.Track
	for i, title := range []string{"One", "", "Three"} {
		path := filepath.Join(dir, fmt.Sprintf("fragment_%d.mp3", i))
		require.NoError(t, os.WriteFile(path, []byte(title), 0o644))
		tracks = append(tracks, recognize.Track{Position: i, FilePath: path, Title: title})
	}

	renamed, err := Tracks(tracks, media, "%N - %t", nil)
	require.NoError(t, err)
	require.Len(t, renamed, 3)

	assert.Equal(t, filepath.Join(dir, "1 - One.mp3"), renamed[0].FilePath)
	assert.Equal(t, filepath.Join(dir, "2 - Unknown Title.mp3"), renamed[1].FilePath)
	assert.Equal(t, filepath.Join(dir, "3 - Three.mp3"), renamed[2].FilePath)
	for i, tr := range renamed {
		assert.Equal(t, i, tr.Position)
		assert.FileExists(t, tr.FilePath)
		assert.NoFileExists(t, tracks[i].FilePath)
	}
}

func TestTracksDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	require.NoError(t, os.WriteFile(a, nil, 0o644))
	require.NoError(t, os.WriteFile(b, nil, 0o644))

	tracks := []recognize.Track{{Position: 0, FilePath: a}, {Position: 1, FilePath: b}}
	_, err := Tracks(tracks, filepath.Join(dir, "set.mp3"), "%t", nil)
	require.Error(t, err)
	assert.FileExists(t, a)
	assert.FileExists(t, b)
}

func TestTracksTargetsOverlapSources(t *testing.T) {
	dir := t.TempDir()

	var tracks []recognize.Track
	for i, content := range []string{"A", "B", "C"} {
		path := filepath.Join(dir, fmt.Sprintf("fragment_%d.mp3", i))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		tracks = append(tracks, recognize.Track{Position: i, FilePath: path})
	}

	// track i moves onto the current name of track i+1
	renamed, err := Tracks(tracks, filepath.Join(dir, "set.mp3"), "fragment_%n", nil)
	require.NoError(t, err)
	require.Len(t, renamed, 3)

	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("fragment_%d.mp3", i+1)), renamed[i].FilePath)
		data, err := os.ReadFile(renamed[i].FilePath)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	assert.NoFileExists(t, filepath.Join(dir, "fragment_0.mp3"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no staging files left behind")
}
