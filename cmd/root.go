package cmd

import (
	"fmt"
	"os"

	"richclip/pkg/config"
	"richclip/pkg/errors"
	"richclip/pkg/logger"

	"github.com/spf13/cobra"
)

const unknownValue = "unknown"

var (
	Version   string
	BuildTime string
	GitCommit string
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "richclip",
	Short: "Cross-platform rich-clipboard CLI",
	Long: `richclip moves multi-MIME clipboard payloads in and out of the system
selection on X11, Wayland, and macOS, using a small length-prefixed bulk
wire format on stdin/stdout.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("RICHCLIP_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			} else if cfg, err := config.Load(); err == nil {
				level = cfg.LogLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Printf("richclip version %s\n", ver)
		fmt.Printf("Built: %s\n", bt)
		fmt.Printf("Git commit: %s\n", gc)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal, panic)")
}
