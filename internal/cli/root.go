package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/config"
	"github.com/mgpai22/setsplit/internal/ffmpeg"
	"github.com/mgpai22/setsplit/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "setsplit",
	Short: "Split a recorded set into tagged tracks",
	Long: `setsplit cuts one continuous recording (a DJ set, a live album, a
compilation video) into individual tracks at the given timestamps, identifies
every track with songrec, then renames and tags the results.

Media can be a local file or any URL supported by yt-dlp.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if exists {
			logger.Debugw("Loaded config", "path", path)
		}
		cfg = loaded

		ffmpeg.Configure(ffmpeg.BinaryPaths{
			FFmpeg:  cfg.Tools.FFmpeg,
			FFprobe: cfg.Tools.FFprobe,
		})
		return nil
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the running stage.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/setsplit/config.toml)")
}
