package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "将备份目录打包为 zip",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")

		a, err := newApp(cmd, quiet)
		if err != nil {
			return err
		}
		if outputPath == "" {
			outputPath = fmt.Sprintf("%s_%s.zip", a.Config().GameID, time.Now().Format("20060102150405"))
		}
		cmd.SilenceUsage = true
		return export(cmd.Context(), a, outputPath)
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "输出路径（默认 <id>_<时间>.zip）")
	exportCmd.Flags().BoolP("quiet", "q", false, "不显示进度条")
	rootCmd.AddCommand(exportCmd)
}

func export(ctx context.Context, a *app.App, outputPath string) error {
	if err := a.Engine().Export(ctx, outputPath); err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}
	fmt.Printf("\n导出完成: %s\n", outputPath)
	return nil
}
