package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("binary not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths

	overridesMu sync.Mutex
	overrides   BinaryPaths
)

// Configure sets explicit binary locations, typically from the config file.
// It must be called before the first Ensure to have an effect.
func Configure(paths BinaryPaths) {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	overrides = paths
}

func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		overridesMu.Lock()
		o := overrides
		overridesMu.Unlock()
		ensurePath, ensureErr = ensure(o)
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

// ffprobe is optional; callers fall back gracefully when it is missing
func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	if paths.FFprobe == "" {
		return "", fmt.Errorf("ffprobe: %w", ErrNotFound)
	}
	return paths.FFprobe, nil
}

func ensure(o BinaryPaths) (BinaryPaths, error) {
	ffmpegPath := firstNonEmpty(os.Getenv("SETSPLIT_FFMPEG_PATH"), o.FFmpeg)
	ffprobePath := firstNonEmpty(os.Getenv("SETSPLIT_FFPROBE_PATH"), o.FFprobe)

	resolved, err := lookup(firstNonEmpty(ffmpegPath, "ffmpeg"))
	if err != nil {
		return BinaryPaths{}, fmt.Errorf("ffmpeg: %w", err)
	}
	paths := BinaryPaths{FFmpeg: resolved}

	if found, err := lookup(firstNonEmpty(ffprobePath, "ffprobe")); err == nil {
		paths.FFprobe = found
	}

	return paths, nil
}

func lookup(name string) (string, error) {
	found, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return found, nil
}

// Version runs "<binary> -version" and returns the first line of its output.
func Version(ctx context.Context, binary string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s -version failed: %w: %s", binary, err, strings.TrimSpace(out.String()))
	}

	scanner := bufio.NewScanner(&out)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
