package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrMalformedResponse = errors.New("malformed songrec response")

// song metadata from a single identification call
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Year   string
}

// identifies the song contained in an audio file; ok is false when the
// fingerprinting service did not recognize anything
type Identifier interface {
	Identify(ctx context.Context, path string) (meta Metadata, ok bool, err error)
}

// identifier backed by the songrec CLI
type SongRec struct {
	binary string
}

func NewSongRec(binary string) *SongRec {
	if strings.TrimSpace(binary) == "" {
		binary = "songrec"
	}
	return &SongRec{binary: binary}
}

func (s *SongRec) Binary() string { return s.binary }

func (s *SongRec) Identify(ctx context.Context, path string) (Metadata, bool, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, "audio-file-to-recognized-song", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, false, fmt.Errorf(
			"identifying track %s failed: %w: stderr: %s, stdout: %s",
			path,
			err,
			strings.TrimSpace(stderr.String()),
			strings.TrimSpace(stdout.String()),
		)
	}

	meta, ok, err := ParseResponse(stdout.Bytes())
	if err != nil {
		return Metadata{}, false, fmt.Errorf("identifying track %s: %w", path, err)
	}
	return meta, ok, nil
}

// ParseResponse extracts song metadata from songrec's JSON output. A response
// without a top-level "track" object means the song was not recognized.
func ParseResponse(data []byte) (Metadata, bool, error) {
	if !gjson.ValidBytes(data) {
		return Metadata{}, false, ErrMalformedResponse
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Metadata{}, false, fmt.Errorf("%w: expected an object", ErrMalformedResponse)
	}

	track := root.Get("track")
	if !track.Exists() {
		return Metadata{}, false, nil
	}
	if !track.IsObject() {
		return Metadata{}, false, fmt.Errorf("%w: track is not an object", ErrMalformedResponse)
	}

	meta := Metadata{
		Title:  track.Get("title").String(),
		Artist: track.Get("subtitle").String(),
	}

	track.Get("sections").ForEach(func(_, section gjson.Result) bool {
		section.Get("metadata").ForEach(func(_, entry gjson.Result) bool {
			switch entry.Get("title").String() {
			case "Album":
				meta.Album = entry.Get("text").String()
			case "Released":
				meta.Year = entry.Get("text").String()
			}
			return true
		})
		return true
	})

	return meta, true, nil
}
