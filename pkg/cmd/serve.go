package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uachado/uachado/pkg/api"
	"github.com/uachado/uachado/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "start the HTTP API server",
	Aliases: []string{"server", "run"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a := app.NewApp(configPath)
		api.RegisterGroup(a.Engine)

		return a.Run(ctx)
	},
}

// registerServeCommands 注册服务启动命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
