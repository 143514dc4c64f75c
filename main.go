package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "savekeeper",
	Short: "游戏存档备份和还原工具",
	Long:  "按热键或面板按钮，将 <path>/<id> 备份到 <path>/<id>_backup，或从备份还原",
	RunE:  runPanel,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if debugInfo, ok := debug.ReadBuildInfo(); ok {
		rootCmd.Version = debugInfo.Main.Version
	}

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "配置文件路径")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
