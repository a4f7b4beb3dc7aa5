package download

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/setsplit/internal/logging"
)

// checks if the media path is a URL rather than a local file
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// downloaded media and optional thumbnail
type Result struct {
	MediaPath     string
	ThumbnailPath string
}

type Options struct {
	AudioFormat string
	Thumbnail   bool
}

// fetches remote media with yt-dlp
type Downloader struct {
	binary string
	logger *logging.Logger
}

func New(binary string, logger *logging.Logger) *Downloader {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	return &Downloader{binary: binary, logger: logging.OrNop(logger)}
}

// yt-dlp arguments for url, without the binary name
func (d *Downloader) Args(url string, opts Options) []string {
	args := []string{
		// only the requested prints go to stdout
		"-q",
	}
	if opts.Thumbnail {
		args = append(args, "--write-thumbnail")
	}
	args = append(args,
		"--restrict-filenames",
		// prints the absolute path of the output file
		"--exec", "echo %(filepath)q",
		"--convert-thumbnails", "jpg",
		"-x", "--audio-format", opts.AudioFormat,
		url,
	)
	return args
}

// Fetch downloads url into destDir and returns the local file paths.
func (d *Downloader) Fetch(ctx context.Context, url, destDir string, opts Options) (Result, error) {
	d.logger.Infow("Downloading media",
		"url", url,
		"dest", destDir,
		"format", opts.AudioFormat,
		"thumbnail", opts.Thumbnail,
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binary, d.Args(url, opts)...)
	cmd.Dir = destDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf(
			"downloading media %s with yt-dlp failed: %w: %s",
			url,
			err,
			strings.TrimSpace(stderr.String()),
		)
	}

	mediaPath := parseOutputPath(stdout.String())
	if mediaPath == "" {
		return Result{}, fmt.Errorf("yt-dlp did not report an output file for %s", url)
	}
	if !filepath.IsAbs(mediaPath) {
		mediaPath = filepath.Join(destDir, mediaPath)
	}

	result := Result{MediaPath: mediaPath}
	if opts.Thumbnail {
		stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
		result.ThumbnailPath = filepath.Join(destDir, stem+".jpg")
	}

	d.logger.Debugw("Media downloaded",
		"media", result.MediaPath,
		"thumbnail", result.ThumbnailPath,
	)
	return result, nil
}

// last non-empty stdout line, with the shell quoting of %(filepath)q removed
func parseOutputPath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	path := strings.TrimSpace(lines[len(lines)-1])
	if len(path) >= 2 && path[0] == '\'' && path[len(path)-1] == '\'' {
		path = path[1 : len(path)-1]
	}
	return path
}
