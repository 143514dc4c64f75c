package main

import (
	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/app"
	"github.com/leijux/savekeeper/internal/savedata"
)

// newApp 根据 --config 构造运行期上下文
func newApp(cmd *cobra.Command, quiet bool) (*app.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	return app.New(configPath, savedata.WithQuiet(quiet))
}
