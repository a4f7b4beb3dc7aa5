package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/config"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSplitFlags(cmd)
	addRecognizeFlags(cmd)
	addRenameFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd
}

func TestApplyFlagsKeepsConfigForUnsetFlags(t *testing.T) {
	c := config.Default()
	c.Split.Pattern = "%f_%n"
	c.Recognize.Workers = 2

	cmd := newFlagCommand(t, "--split-fade-in", "0", "--rename-name-pattern", "%a - %t")
	if err := applyFlags(cmd, &c); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}

	if c.Split.Pattern != "%f_%n" {
		t.Errorf("unset flag overrode pattern: %q", c.Split.Pattern)
	}
	if c.Recognize.Workers != 2 {
		t.Errorf("unset flag overrode workers: %d", c.Recognize.Workers)
	}
	if c.Split.FadeIn != 0 {
		t.Errorf("expected fade in 0, got %d", c.Split.FadeIn)
	}
	if c.Rename.Pattern != "%a - %t" {
		t.Errorf("unexpected rename pattern %q", c.Rename.Pattern)
	}
}

func TestApplyFlagsValidates(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"pattern without index", []string{"--split-file-pattern", "fragment"}},
		{"negative split workers", []string{"--split-num-threads", "-1"}},
		{"negative recognize workers", []string{"--recognize-num-threads", "-3"}},
		{"unknown playlist mode", []string{"--playlist", "everywhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			if err := applyFlags(newFlagCommand(t, tt.args...), &c); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestSetPlaylistMode(t *testing.T) {
	tests := []struct {
		mode string
		want config.Playlist
	}{
		{"same", config.Playlist{SameFolder: true}},
		{"Parent", config.Playlist{ParentFolder: true}},
		{" both ", config.Playlist{SameFolder: true, ParentFolder: true}},
		{"none", config.Playlist{}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c := config.Default()
			if err := setPlaylistMode(&c, tt.mode); err != nil {
				t.Fatalf("setPlaylistMode(%q) error: %v", tt.mode, err)
			}
			if c.Playlist != tt.want {
				t.Errorf("setPlaylistMode(%q) = %+v, want %+v", tt.mode, c.Playlist, tt.want)
			}
		})
	}
}

func TestIsStdin(t *testing.T) {
	for arg, want := range map[string]bool{"": true, "-": true, "stdin": true, "list.txt": false} {
		if got := isStdin(arg); got != want {
			t.Errorf("isStdin(%q) = %v, want %v", arg, got, want)
		}
	}
}

func TestReadTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	content := "01. Intro 0:00\r\n02. Next 4:30\r\nno marker here\r\n03. Last 1:02:03\r\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var prompt strings.Builder
	got, err := readTimestamps(path, strings.NewReader(""), &prompt)
	if err != nil {
		t.Fatalf("readTimestamps() error: %v", err)
	}
	if want := []int{0, 270, 3723}; !reflect.DeepEqual(got, want) {
		t.Errorf("readTimestamps() = %v, want %v", got, want)
	}

	got, err = readTimestamps("-", strings.NewReader("0:10\n0:20\n\n\n0:30\n"), &prompt)
	if err != nil {
		t.Fatalf("readTimestamps(stdin) error: %v", err)
	}
	if want := []int{10, 20}; !reflect.DeepEqual(got, want) {
		t.Errorf("readTimestamps(stdin) = %v, want %v", got, want)
	}
	if prompt.Len() != 0 {
		t.Errorf("prompt shown for non-terminal input: %q", prompt.String())
	}

	if _, err := readTimestamps(filepath.Join(t.TempDir(), "absent.txt"), nil, &prompt); err == nil {
		t.Error("expected error for missing file")
	}
}
