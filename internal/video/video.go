// Package video pulls the audio track out of video media so the fragments cut
// from it are plain, taggable audio files.
package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/setsplit/internal/ffmpeg"
)

// holds options for audio extraction
type ExtractAudioOptions struct {
	Format  string // one of the keys of formats
	Bitrate string // lossy formats only, e.g. "320k"
}

// returns the defaults used for sets: high bitrate mp3 at the source rate
func DefaultExtractAudioOptions() ExtractAudioOptions {
	return ExtractAudioOptions{
		Format:  "mp3",
		Bitrate: "320k",
	}
}

// Processor extracts audio with the ffmpeg binary.
type Processor struct {
	ffmpegPath string
}

// uses the given ffmpeg binary, or the resolved one when empty
func NewProcessor(ffmpegPath string) *Processor {
	return &Processor{ffmpegPath: ffmpegPath}
}

// codec and container per audio format, keyed like yt-dlp's --audio-format
var formats = map[string]struct {
	codec string
	ext   string
	lossy bool
}{
	"mp3":    {"libmp3lame", "mp3", true},
	"aac":    {"aac", "aac", true},
	"m4a":    {"aac", "m4a", true},
	"alac":   {"alac", "m4a", false},
	"flac":   {"flac", "flac", false},
	"opus":   {"libopus", "opus", true},
	"vorbis": {"libvorbis", "ogg", true},
	"wav":    {"pcm_s16le", "wav", false},
}

// Supported reports whether format can be extracted.
func Supported(format string) bool {
	_, ok := formats[format]
	return ok
}

// Extension returns the file extension, without the dot, for format.
func Extension(format string) string {
	if f, ok := formats[format]; ok {
		return f.ext
	}
	return format
}

// ffmpeg arguments for the extraction, without the binary name
func (p *Processor) Args(videoPath, outputPath string, opts ExtractAudioOptions) []string {
	kwargs := ffmpeg.KwArgs{
		"vn": "", // no video
	}
	if f, ok := formats[opts.Format]; ok {
		kwargs["acodec"] = f.codec
		if f.lossy && opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	}

	return ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		GlobalArgs("-loglevel", "error", "-hide_banner").
		OverWriteOutput().
		GetArgs()
}

// extracts the audio track of videoPath into outputPath
func (p *Processor) ExtractAudio(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractAudioOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if !Supported(opts.Format) {
		return fmt.Errorf("unsupported audio format %q", opts.Format)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	binary := p.ffmpegPath
	if binary == "" {
		resolved, err := ffmpegbin.FFmpegPath()
		if err != nil {
			return err
		}
		binary = resolved
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, p.Args(videoPath, outputPath, opts)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	return nil
}
