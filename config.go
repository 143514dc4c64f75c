package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leijux/savekeeper/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "查看配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, content, err := readConfig(configPath)
		if err != nil {
			return err
		}

		p := tea.NewProgram(
			configPager{path: configPath, cfg: cfg, content: string(content)},
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)

		if _, err := p.Run(); err != nil {
			cmd.SilenceUsage = true
			return err
		}

		return nil
	},
}

// configImportCmd 用外部文件替换配置
var configImportCmd = &cobra.Command{
	Use:   "import",
	Short: "导入配置文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		importPath, _ := cmd.Flags().GetString("input")
		force, _ := cmd.Flags().GetBool("force")
		if importPath == "" {
			return fmt.Errorf("导入文件路径不能为空")
		}

		cmd.SilenceUsage = true
		return importConfig(configPath, importPath, force)
	},
}

func init() {
	configImportCmd.Flags().StringP("input", "i", "", "要导入的配置文件")
	configImportCmd.Flags().BoolP("force", "f", false, "跳过校验强制替换")

	configCmd.AddCommand(configImportCmd)
	rootCmd.AddCommand(configCmd)
}

// readConfig 读取解析后的配置和文件原文，文件不存在时先写入默认配置
func readConfig(configPath string) (config.Config, []byte, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("读取配置文件失败 (%s): %w", configPath, err)
	}
	return cfg, data, nil
}

// importConfig 校验后替换配置文件，正在运行的面板会通过文件监听自动生效
func importConfig(configPath, importPath string, force bool) error {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败 (%s): %w", importPath, err)
	}

	if !force {
		if err := config.ValidateDocument(data); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败 (%s): %w", configPath, err)
	}

	fmt.Printf("配置已成功导入到: %s\n", configPath)
	return nil
}

var (
	pagerTitleStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Right = "├"
		return lipgloss.NewStyle().BorderStyle(b).Padding(0, 1)
	}()

	pagerInfoStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		b.Left = "┤"
		return pagerTitleStyle.BorderStyle(b)
	}()

	pagerPathStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

// configPager 配置文件的只读分页查看器。
// 顶部显示解析后的存档目录和备份目录，底部显示当前热键
type configPager struct {
	path    string
	cfg     config.Config
	content string

	ready    bool
	viewport viewport.Model
}

func (m configPager) Init() tea.Cmd {
	return nil
}

func (m configPager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" || k == "esc" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		chrome := lipgloss.Height(m.headerView()) + lipgloss.Height(m.footerView())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.YPosition = lipgloss.Height(m.headerView())
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m configPager) View() string {
	if !m.ready {
		return "\n  Loading " + m.path + "..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m configPager) headerView() string {
	title := pagerTitleStyle.Render(m.path)
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))
	paths := pagerPathStyle.Render(fmt.Sprintf("%s → %s", m.cfg.SourceDir(), m.cfg.BackupRoot()))
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Center, title, line), paths)
}

func (m configPager) footerView() string {
	keys := fmt.Sprintf("备份 %s  还原 %s  退出 %s",
		strings.ToUpper(m.cfg.BackupKey), strings.ToUpper(m.cfg.RestoreKey), strings.ToUpper(m.cfg.ExitKey))
	info := pagerInfoStyle.Render(fmt.Sprintf("%s  %3.f%%", keys, m.viewport.ScrollPercent()*100))
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(info)))
	return lipgloss.JoinHorizontal(lipgloss.Center, line, info)
}
