package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/timestamps"
)

var timestampsCmd = &cobra.Command{
	Use:   "timestamps [file]",
	Short: "Print the timestamps found in a track list",
	Long: `Parse a track list the way process does and print one normalized
timestamp per track, to check a list before splitting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var arg string
		if len(args) > 0 {
			arg = args[0]
		}
		starts, err := readTimestamps(arg, os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		for i, s := range starts {
			fmt.Printf("%d\t%s\n", i, timestamps.Format(s))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timestampsCmd)
}
