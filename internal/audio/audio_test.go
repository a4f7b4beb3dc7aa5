package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseProbeDuration(t *testing.T) {
	got, err := parseProbeDuration([]byte(`{"format": {"filename": "x.mp3", "duration": "125.500000"}}`))
	if err != nil {
		t.Fatalf("parseProbeDuration() error: %v", err)
	}
	if want := 125*time.Second + 500*time.Millisecond; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := parseProbeDuration([]byte(`{"format": {}}`)); err == nil {
		t.Error("expected error without duration")
	}
	if _, err := parseProbeDuration([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMediaTypes(t *testing.T) {
	tests := []struct {
		path  string
		audio bool
		video bool
	}{
		{"set.mp3", true, false},
		{"SET.FLAC", true, false},
		{"concert.mkv", false, true},
		{"clip.webm", false, true},
		{"notes.txt", false, false},
	}
	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.audio {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.audio)
		}
		if got := IsVideoFile(tt.path); got != tt.video {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.video)
		}
		if got := IsMediaFile(tt.path); got != (tt.audio || tt.video) {
			t.Errorf("IsMediaFile(%q) = %v", tt.path, got)
		}
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(a, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Cleanup([]string{a, "", filepath.Join(dir, "gone.mp3")}); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", a)
	}
}
