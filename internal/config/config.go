// Package config loads setsplit settings from an optional TOML file and
// validates them. Command-line flags override the loaded values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/setsplit/internal/audio"
	"github.com/mgpai22/setsplit/internal/video"
)

// Config holds every tunable of a pipeline run.
type Config struct {
	Split     Split     `toml:"split"`
	Recognize Recognize `toml:"recognize"`
	Rename    Rename    `toml:"rename"`
	Download  Download  `toml:"download"`
	Playlist  Playlist  `toml:"playlist"`
	Tools     Tools     `toml:"tools"`
}

type Split struct {
	Pattern     string `toml:"pattern"`
	Workers     int    `toml:"workers"`
	StartOffset int    `toml:"start_offset"`
	EndOffset   int    `toml:"end_offset"`
	FadeIn      uint   `toml:"fade_in"`
	FadeOut     uint   `toml:"fade_out"`
}

type Recognize struct {
	Workers int `toml:"workers"`
}

type Rename struct {
	Pattern string `toml:"pattern"`
}

type Download struct {
	AudioFormat string `toml:"audio_format"` // used for remote media only
}

type Playlist struct {
	SameFolder   bool `toml:"same_folder"`
	ParentFolder bool `toml:"parent_folder"`
}

// Tools overrides the binaries looked up on PATH.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	SongRec string `toml:"songrec"`
	YtDlp   string `toml:"yt_dlp"`
}

// Default returns the settings used when neither a config file nor flags say
// otherwise.
func Default() Config {
	split := audio.DefaultSplitConfig()
	return Config{
		Split: Split{
			Pattern:     split.NamePattern,
			Workers:     split.Workers,
			StartOffset: split.StartOffset,
			EndOffset:   split.EndOffset,
			FadeIn:      split.FadeIn,
			FadeOut:     split.FadeOut,
		},
		Recognize: Recognize{Workers: 8},
		Rename:    Rename{Pattern: "%N - %t"},
		Download:  Download{AudioFormat: "mp3"},
		Playlist:  Playlist{SameFolder: true},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			SongRec: "songrec",
			YtDlp:   "yt-dlp",
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty, on top of Default. It returns the resolved path and whether the file
// existed. A missing default file is not an error; a missing explicit one is.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("SETSPLIT_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		def, err := DefaultPath()
		if err != nil {
			return "", false, nil
		}
		path = def
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return "", false, fmt.Errorf("config file not found: %s", expanded)
			}
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/setsplit/config.toml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "setsplit", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "setsplit", "config.toml"), nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// tool paths from the environment win over the file
func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"SETSPLIT_FFMPEG_PATH":  &c.Tools.FFmpeg,
		"SETSPLIT_FFPROBE_PATH": &c.Tools.FFprobe,
		"SETSPLIT_SONGREC_PATH": &c.Tools.SongRec,
		"SETSPLIT_YTDLP_PATH":   &c.Tools.YtDlp,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}
}

func (c *Config) normalize() {
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.SongRec = strings.TrimSpace(c.Tools.SongRec)
	c.Tools.YtDlp = strings.TrimSpace(c.Tools.YtDlp)
}

// Validate checks the values the pipeline relies on.
func (c *Config) Validate() error {
	if err := c.SplitConfig().Validate(); err != nil {
		return err
	}
	if c.Recognize.Workers < 0 {
		return fmt.Errorf("recognize workers must not be negative, got %d", c.Recognize.Workers)
	}
	if strings.TrimSpace(c.Rename.Pattern) == "" {
		return errors.New("rename pattern must not be empty")
	}
	if c.Download.AudioFormat == "" {
		return errors.New("audio format must not be empty")
	}
	if !video.Supported(c.Download.AudioFormat) {
		return fmt.Errorf("unsupported audio format %q", c.Download.AudioFormat)
	}
	return nil
}

// SplitConfig converts the split section into the splitter's settings.
func (c *Config) SplitConfig() audio.SplitConfig {
	return audio.SplitConfig{
		StartOffset: c.Split.StartOffset,
		EndOffset:   c.Split.EndOffset,
		FadeIn:      c.Split.FadeIn,
		FadeOut:     c.Split.FadeOut,
		Workers:     c.Split.Workers,
		NamePattern: c.Split.Pattern,
	}
}
