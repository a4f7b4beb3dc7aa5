package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/pipeline"
)

var splitCmd = &cobra.Command{
	Use:   "split <media> [timestamps]",
	Short: "Only split a media file at the given timestamps",
	Long: `Cut a local media file into fragments without identifying them.

Examples:
  setsplit split set.mp3 tracklist.txt
  setsplit split set.flac - --dest fragments --split-fade-in 0 --split-fade-out 0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().
		StringP("dest", "d", "", "Directory for the fragments (default: the media's directory)")
	addSplitFlags(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	media := args[0]
	if _, err := os.Stat(media); err != nil {
		return fmt.Errorf("file not found: %s", media)
	}
	dest, _ := cmd.Flags().GetString("dest")
	if dest == "" {
		dest = filepath.Dir(media)
	}

	var tsArg string
	if len(args) > 1 {
		tsArg = args[1]
	}
	starts, err := readTimestamps(tsArg, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	paths, err := pipeline.Build(cfg, logger).Split(cmd.Context(), media, starts, dest)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	if dropped := len(starts) - len(paths); dropped > 0 {
		return fmt.Errorf("%d of %d fragments failed", dropped, len(starts))
	}
	return nil
}
