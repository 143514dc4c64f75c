package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/app"
	"github.com/leijux/savekeeper/internal/savedata"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "执行还原",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, err := cmd.Flags().GetString("input")
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		a, err := newApp(cmd, quiet)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return restore(cmd.Context(), a, inputPath)
	},
}

func init() {
	restoreCmd.Flags().StringP("input", "i", "", "从 zip 备份包还原（默认从备份目录还原）")
	restoreCmd.Flags().BoolP("quiet", "q", false, "不显示进度条")
	rootCmd.AddCommand(restoreCmd)
}

// restore inputPath 为空时从备份目录还原，否则从 export 生成的 zip 还原
func restore(ctx context.Context, a *app.App, inputPath string) error {
	source, backupRoot := a.Engine().Paths()

	if inputPath == "" {
		if err := a.Engine().Restore(ctx); err != nil {
			return fmt.Errorf("还原失败: %w", err)
		}
		fmt.Printf("\n%s: %s → %s\n", savedata.MsgRestored, backupRoot, source)
		return nil
	}

	if err := a.Engine().RestoreArchive(ctx, inputPath); err != nil {
		return fmt.Errorf("还原失败: %w", err)
	}
	fmt.Printf("\n%s: %s → %s\n", savedata.MsgRestored, inputPath, source)
	return nil
}
