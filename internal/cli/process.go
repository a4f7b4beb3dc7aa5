package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <media> [timestamps]",
	Short: "Download, split, identify, rename and tag a recorded set",
	Long: `Run the whole pipeline on a local media file or a media URL.

Each line of the timestamps file marks the start of a track; the first
timestamp on a line wins. hh:mm:ss, mm:ss, hh.mm.ss and mm.ss are understood.
Without a timestamps file (or with "-" or "stdin") they are read from standard
input, terminated by two empty lines or EOF.

Output goes into a directory named after the media file, created under
--dest, the directory of local media, or the directory of the timestamps file.

Examples:
  setsplit process set.mp3 tracklist.txt
  setsplit process "https://www.youtube.com/watch?v=..." --dest ~/Music
  setsplit process live.flac - --rename-name-pattern "%N %a - %t" --playlist both`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().
		StringP("dest", "d", "", "Destination directory, created when missing")
	processCmd.Flags().
		Bool("use-thumbnail", false, "Fetch the thumbnail of a media URL and use it as artwork (default on for URLs)")
	processCmd.Flags().
		String("thumbnail", "", "Artwork file to use when tagging, implies --use-thumbnail")
	processCmd.Flags().
		StringP("audio-format", "f", "", "Audio format for downloaded media: mp3, aac, m4a, alac, flac, opus, vorbis or wav (default from config: mp3)")
	addSplitFlags(processCmd)
	addRecognizeFlags(processCmd)
	addRenameFlags(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	var tsArg string
	if len(args) > 1 {
		tsArg = args[1]
	}
	req := pipeline.Request{Media: args[0]}
	req.Dest, _ = cmd.Flags().GetString("dest")
	req.ThumbnailPath, _ = cmd.Flags().GetString("thumbnail")
	req.AudioFormat, _ = cmd.Flags().GetString("audio-format")
	req.AudioFormat = strings.ToLower(strings.TrimSpace(req.AudioFormat))
	if cmd.Flags().Changed("use-thumbnail") {
		use, _ := cmd.Flags().GetBool("use-thumbnail")
		req.UseThumbnail = &use
	}
	if !isStdin(tsArg) {
		req.TimestampsPath = tsArg
	}

	// fail on bad flag combinations before asking for timestamps
	if _, err := pipeline.ResolveDest(req); err != nil {
		return err
	}

	starts, err := readTimestamps(tsArg, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	req.Starts = starts

	logger.Infow("Starting",
		"media", req.Media,
		"timestamps", len(starts),
	)

	result, err := pipeline.Build(cfg, logger).Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Print(pipeline.Summary(result))
	return nil
}
