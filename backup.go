package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/app"
	"github.com/leijux/savekeeper/internal/savedata"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "执行备份",
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		a, err := newApp(cmd, quiet)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return backup(cmd.Context(), a)
	},
}

func init() {
	backupCmd.Flags().BoolP("quiet", "q", false, "不显示进度条")
	rootCmd.AddCommand(backupCmd)
}

func backup(ctx context.Context, a *app.App) error {
	source, target := a.Engine().Paths()
	if err := a.Engine().Backup(ctx); err != nil {
		return fmt.Errorf("备份失败: %w", err)
	}

	fmt.Printf("\n%s: %s → %s\n", savedata.MsgBackedUp, source, target)
	return nil
}
