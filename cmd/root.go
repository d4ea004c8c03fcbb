package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Bt1Clip/config"
	"Bt1Clip/logger"
	"Bt1Clip/server"
)

var rootCmd = &cobra.Command{
	Use:   "1clip_server",
	Short: "1Clip is a multi-track video editing backend.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
