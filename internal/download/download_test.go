package download

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/watch?v=x": true,
		"http://example.com/set.mp3":        true,
		"/home/me/set.mp3":                  false,
		"set.mp3":                           false,
		"ftp://example.com/set.mp3":         false,
	}
	for in, want := range tests {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestArgs(t *testing.T) {
	d := New("", nil)

	args := d.Args("https://x", Options{AudioFormat: "flac", Thumbnail: true})
	if !slices.Contains(args, "--write-thumbnail") {
		t.Errorf("expected --write-thumbnail in %q", args)
	}
	if args[len(args)-1] != "https://x" {
		t.Errorf("expected url last, got %q", args)
	}
	i := slices.Index(args, "--audio-format")
	if i < 0 || args[i+1] != "flac" {
		t.Errorf("expected --audio-format flac in %q", args)
	}

	if slices.Contains(d.Args("https://x", Options{AudioFormat: "mp3"}), "--write-thumbnail") {
		t.Error("thumbnail flag should be omitted")
	}
}

func TestParseOutputPath(t *testing.T) {
	tests := map[string]string{
		"'/tmp/My_Set.mp3'\n":             "/tmp/My_Set.mp3",
		"/tmp/set.mp3":                    "/tmp/set.mp3",
		"warning line\n'/tmp/a.flac'\n\n": "/tmp/a.flac",
	}
	for in, want := range tests {
		if got := parseOutputPath(in); got != want {
			t.Errorf("parseOutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	bin := filepath.Join(t.TempDir(), "yt-dlp")
	script := "#!/bin/sh\n: > Live_Set.mp3\n: > Live_Set.jpg\necho \"'$(pwd)/Live_Set.mp3'\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	dest, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(bin, nil).Fetch(context.Background(), "https://x", dest, Options{AudioFormat: "mp3", Thumbnail: true})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if res.MediaPath != filepath.Join(dest, "Live_Set.mp3") {
		t.Errorf("unexpected media path %q", res.MediaPath)
	}
	if res.ThumbnailPath != filepath.Join(dest, "Live_Set.jpg") {
		t.Errorf("unexpected thumbnail path %q", res.ThumbnailPath)
	}
}

func TestFetchFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	bin := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho 'ERROR: unsupported URL' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	if _, err := New(bin, nil).Fetch(context.Background(), "https://x", t.TempDir(), Options{AudioFormat: "mp3"}); err == nil {
		t.Fatal("expected error")
	}
}
