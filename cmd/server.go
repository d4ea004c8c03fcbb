package cmd

import (
	"github.com/spf13/cobra"

	"Bt1Clip/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动1Clip服务器",
	Long:  `启动1Clip视频剪辑系统的HTTP服务器，提供API服务和编辑会话WebSocket`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
