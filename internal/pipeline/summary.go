package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mgpai22/setsplit/internal/recognize"
	"github.com/mgpai22/setsplit/internal/tagging"
)

// TrackTable renders tracks as a table, one row per track.
func TrackTable(tracks []recognize.Track) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Artist", "Album", "Year", "Rechecked", "File"})
	for _, t := range tracks {
		title, artist, album := t.Title, t.Artist, t.Album
		if !t.Identified() {
			title, artist, album = tagging.UnknownTitle, tagging.UnknownArtist, tagging.UnknownAlbum
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(t.Position + 1),
			title,
			artist,
			album,
			t.Year,
			yesNo(t.Rechecked),
			filepath.Base(t.FilePath),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// Summary renders the per-run counters followed by the track table.
func Summary(r *Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Timestamps", "Fragments", "Recognized", "Rechecked", "Recovered"})
	tw.AppendRow(table.Row{r.Requested, r.Stats.Total, r.Stats.Recognized, r.Stats.Rechecked, r.Stats.RecoveredByRecheck})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteString("\n")
	if len(r.Tracks) > 0 {
		b.WriteString(TrackTable(r.Tracks))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Output: %s\n", r.MediaDir)
	for _, p := range r.Playlists {
		fmt.Fprintf(&b, "Playlist: %s\n", p)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
