package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/config"
	"github.com/mgpai22/setsplit/internal/logging"
	"github.com/mgpai22/setsplit/internal/timestamps"
)

const timestampsPrompt = "Paste timestamps below. Terminate with two empty lines or EOF (CTRL-D)."

func addSplitFlags(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().
		String("split-file-pattern", def.Split.Pattern, "Fragment name pattern: %n fragment number (from 0), %f media name; must contain %n")
	cmd.Flags().
		Int("split-num-threads", def.Split.Workers, "Parallel splits, 0 uses one per CPU core")
	cmd.Flags().
		Int("split-start-offset", def.Split.StartOffset, "Seconds added to each start timestamp")
	cmd.Flags().
		Int("split-end-offset", def.Split.EndOffset, "Seconds added to each end timestamp")
	cmd.Flags().
		Uint("split-fade-in", def.Split.FadeIn, "Fade-in length in seconds")
	cmd.Flags().
		Uint("split-fade-out", def.Split.FadeOut, "Fade-out length in seconds")
}

func addRecognizeFlags(cmd *cobra.Command) {
	cmd.Flags().
		Int("recognize-num-threads", config.Default().Recognize.Workers, "Parallel songrec calls, 0 uses one per CPU core")
}

func addRenameFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("rename-name-pattern", config.Default().Rename.Pattern, "Track name pattern: %t title, %a artist, %n number, %N zero-padded number, %l album, %m media name")
	cmd.Flags().
		String("playlist", "", "Where to write the M3U playlist: same, parent, both or none (default from config: same)")
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed("split-file-pattern") {
		c.Split.Pattern, err = flags.GetString("split-file-pattern")
	}
	if err == nil && changed("split-num-threads") {
		c.Split.Workers, err = flags.GetInt("split-num-threads")
	}
	if err == nil && changed("split-start-offset") {
		c.Split.StartOffset, err = flags.GetInt("split-start-offset")
	}
	if err == nil && changed("split-end-offset") {
		c.Split.EndOffset, err = flags.GetInt("split-end-offset")
	}
	if err == nil && changed("split-fade-in") {
		c.Split.FadeIn, err = flags.GetUint("split-fade-in")
	}
	if err == nil && changed("split-fade-out") {
		c.Split.FadeOut, err = flags.GetUint("split-fade-out")
	}
	if err == nil && changed("recognize-num-threads") {
		c.Recognize.Workers, err = flags.GetInt("recognize-num-threads")
	}
	if err == nil && changed("rename-name-pattern") {
		c.Rename.Pattern, err = flags.GetString("rename-name-pattern")
	}
	if err == nil && changed("playlist") {
		var mode string
		if mode, err = flags.GetString("playlist"); err == nil {
			err = setPlaylistMode(c, mode)
		}
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

func setPlaylistMode(c *config.Config, mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "same":
		c.Playlist = config.Playlist{SameFolder: true}
	case "parent":
		c.Playlist = config.Playlist{ParentFolder: true}
	case "both":
		c.Playlist = config.Playlist{SameFolder: true, ParentFolder: true}
	case "none":
		c.Playlist = config.Playlist{}
	default:
		return fmt.Errorf("invalid playlist mode %q: use same, parent, both or none", mode)
	}
	return nil
}

// isStdin reports whether a timestamps argument asks for interactive input.
func isStdin(arg string) bool {
	return arg == "" || arg == "-" || arg == "stdin"
}

// readTimestamps loads the start markers from a file, or from in when arg
// names stdin. The prompt is only shown when in is a terminal.
func readTimestamps(arg string, in io.Reader, prompt io.Writer) ([]int, error) {
	var lines []string
	var err error
	if isStdin(arg) {
		if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			fmt.Fprintln(prompt, timestampsPrompt)
		}
		lines, err = timestamps.Collect(in)
	} else {
		lines, err = timestamps.ReadFile(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamps: %w", err)
	}

	starts := timestamps.Parse(lines)
	logging.OrNop(logger).Debugw("Parsed timestamps", "lines", len(lines), "timestamps", len(starts))
	return starts, nil
}
