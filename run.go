package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/app"
	"github.com/leijux/savekeeper/internal/config"
	"github.com/leijux/savekeeper/internal/hotkey"
	"github.com/leijux/savekeeper/internal/savedata"
	"github.com/leijux/savekeeper/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "打开交互面板并监听热键（默认命令）",
	RunE:  runPanel,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "只监听系统热键，不显示面板",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return listen(cmd.Context(), a)
	},
}

func init() {
	rootCmd.Flags().String("log", "savekeeper.log", "面板运行时的日志文件")
	runCmd.Flags().String("log", "savekeeper.log", "面板运行时的日志文件")
	rootCmd.AddCommand(runCmd, listenCmd)
}

func runPanel(cmd *cobra.Command, args []string) error {
	// 面板占用终端，日志写入文件
	logPath, _ := cmd.Flags().GetString("log")
	f, err := tea.LogToFile(logPath, "savekeeper ")
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	defer f.Close()

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := newPanel(ctx, a, tea.WithAltScreen())
	startBackground(ctx, a, a.Dispatcher())

	_, err = p.Run()
	return err
}

// newPanel 创建交互面板，并把分发器结果和配置变化接入面板
func newPanel(ctx context.Context, a *app.App, opts ...tea.ProgramOption) *tea.Program {
	d := a.Dispatcher()
	p := tea.NewProgram(ui.New(a, d.Press, ui.WithContext(ctx)), opts...)

	d.OnStatus = func(st savedata.Status) { p.Send(ui.StatusMsg(st)) }
	d.OnExit = p.Quit
	a.OnChange = func(config.Config) { p.Send(ui.ConfigChangedMsg{}) }
	return p
}

// startBackground 启动热键分发器、系统热键和配置监听
func startBackground(ctx context.Context, a *app.App, d *hotkey.Dispatcher) {
	go d.Run(ctx)
	go func() {
		if err := hotkey.ListenGlobal(ctx, d); err != nil {
			log.Printf("系统热键不可用，只响应终端按键: %v", err)
		}
	}()
	go func() {
		if err := a.Watch(ctx); err != nil {
			log.Printf("配置监听已停止: %v", err)
		}
	}()
}

// listenModel 不渲染界面，系统热键之外再把终端按键交给分发器
type listenModel struct {
	press func(string)
}

func (m listenModel) Init() tea.Cmd { return nil }

func (m listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		if k.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.press(k.String())
	}
	return m, nil
}

func (m listenModel) View() string { return "" }

func listen(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := a.Config()
	log.Printf("正在监听热键: 备份 %s, 还原 %s, 退出 %s", cfg.BackupKey, cfg.RestoreKey, cfg.ExitKey)

	d := a.Dispatcher()
	p := tea.NewProgram(listenModel{press: d.Press}, tea.WithoutRenderer(), tea.WithContext(ctx))

	d.OnStatus = func(st savedata.Status) {
		fmt.Fprint(os.Stderr, "\a")
		if st.OK {
			log.Println(st.Text)
		} else {
			log.Printf("失败: %s", st.Text)
		}
	}
	d.OnExit = p.Quit

	startBackground(ctx, a, d)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
