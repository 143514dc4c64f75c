package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leijux/savekeeper/internal/config"
	"github.com/leijux/savekeeper/internal/savedata"
)

// StatusDuration 状态文本的显示时长
const StatusDuration = 2 * time.Second

// Controller 面板需要的操作，由 app.App 实现
type Controller interface {
	Backup(ctx context.Context) savedata.Status
	Restore(ctx context.Context) savedata.Status
	Config() config.Config
	SaveSettings(cfg config.Config) error
}

// StatusMsg 操作结果，热键触发的结果也通过 Program.Send 送入
type StatusMsg savedata.Status

// ConfigChangedMsg 配置被外部修改后触发重绘
type ConfigChangedMsg struct{}

type clearStatusMsg struct{ id int }

const (
	buttonBackup = iota
	buttonRestore
	buttonSettings
	buttonCount
)

var buttonLabels = [buttonCount]string{"BackUp", "Restore", "Settings"}

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "下一个")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "上一个")),
	Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "确定")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "取消")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "退出")),
}

type Model struct {
	ctx     context.Context
	ctrl    Controller
	hotkeys func(string)
	bell    io.Writer

	focus      int
	status     savedata.Status
	statusID   int
	clearAfter time.Duration

	settings *settingsForm
}

type Option func(*Model)

// WithBell 状态出现时写入响铃字符的目标，默认 stderr
func WithBell(w io.Writer) Option {
	return func(m *Model) { m.bell = w }
}

func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// New 创建面板。hotkeys 接收面板未处理的按键，一般是 Dispatcher.Press
func New(ctrl Controller, hotkeys func(string), opts ...Option) Model {
	m := Model{
		ctx:        context.Background(),
		ctrl:       ctrl,
		hotkeys:    hotkeys,
		bell:       os.Stderr,
		clearAfter: StatusDuration,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.settings != nil {
			return m.updateSettings(msg)
		}
		return m.updateMain(msg)

	case StatusMsg:
		m.statusID++
		m.status = savedata.Status(msg)
		id := m.statusID
		return m, tea.Batch(
			m.ring(),
			tea.Tick(m.clearAfter, func(time.Time) tea.Msg { return clearStatusMsg{id: id} }),
		)

	case settingsSavedMsg:
		m.settings = nil
		return m, func() tea.Msg { return StatusMsg{OK: true, Text: MsgSettingsSaved} }

	case settingsErrMsg:
		if m.settings != nil {
			m.settings.err = msg.err.Error()
		}
		return m, nil

	case clearStatusMsg:
		// 只清除自己对应的状态，较新的状态保留完整时长
		if msg.id == m.statusID {
			m.status = savedata.Status{}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Next):
		m.focus = (m.focus + 1) % buttonCount
	case key.Matches(msg, keys.Prev):
		m.focus = (m.focus + buttonCount - 1) % buttonCount
	case key.Matches(msg, keys.Activate):
		return m.activate()
	default:
		m.forward(msg)
	}
	return m, nil
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	ctx, ctrl := m.ctx, m.ctrl
	switch m.focus {
	case buttonBackup:
		return m, func() tea.Msg { return StatusMsg(ctrl.Backup(ctx)) }
	case buttonRestore:
		return m, func() tea.Msg { return StatusMsg(ctrl.Restore(ctx)) }
	case buttonSettings:
		m.settings = newSettingsForm(ctrl.Config())
		return m, m.settings.focusCmd()
	}
	return m, nil
}

// forward 把面板不处理的按键交给热键分发器
func (m Model) forward(msg tea.KeyMsg) {
	if m.hotkeys != nil {
		m.hotkeys(msg.String())
	}
}

func (m Model) ring() tea.Cmd {
	w := m.bell
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		fmt.Fprint(w, "\a")
		return nil
	}
}

func (m Model) View() string {
	if m.settings != nil {
		return m.settings.view()
	}

	cfg := m.ctrl.Config()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Save Keeper"))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("Press '%s' to backup save files\nPress '%s' to restore save files",
		strings.ToUpper(cfg.BackupKey), strings.ToUpper(cfg.RestoreKey))))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("%s → %s", cfg.SourceDir(), cfg.BackupRoot())))
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n\n")

	buttons := make([]string, 0, buttonCount)
	for i, label := range buttonLabels {
		if i == m.focus {
			buttons = append(buttons, activeButtonStyle.Render(label))
		} else {
			buttons = append(buttons, buttonStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("tab 切换  enter 确定  %s 退出  ctrl+c 强制退出", strings.ToUpper(cfg.ExitKey))))
	return appStyle.Render(b.String())
}

func (m Model) statusView() string {
	switch {
	case m.status.Text == "":
		return ""
	case m.status.OK:
		return okStyle.Render(m.status.Text)
	default:
		return failStyle.Render(m.status.Text)
	}
}

// Status 当前显示的状态，清除后为空
func (m Model) Status() savedata.Status {
	return m.status
}
