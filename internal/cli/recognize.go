package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/pipeline"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <file>...",
	Short: "Identify audio files with songrec",
	Long: `Identify each file with songrec and print the results. Files songrec
cannot identify are retried once on an excerpt. Nothing is renamed or tagged.

Examples:
  setsplit recognize fragment_*.mp3
  setsplit recognize track.flac --recognize-num-threads 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	addRecognizeFlags(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	tracks, stats, err := pipeline.Build(cfg, logger).Recognize(cmd.Context(), args)
	if err != nil {
		return err
	}

	fmt.Println(pipeline.TrackTable(tracks))
	fmt.Printf("Recognized %d of %d (%d rechecked, %d recovered)\n",
		stats.Recognized, stats.Total, stats.Rechecked, stats.RecoveredByRecheck)
	return nil
}
