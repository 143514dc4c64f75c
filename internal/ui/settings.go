package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leijux/savekeeper/internal/config"
	"github.com/leijux/savekeeper/internal/hotkey"
)

const (
	fieldPath = iota
	fieldID
	fieldBackup
	fieldRestore
	fieldExit
	fieldCount
)

var fieldLabels = [fieldCount]string{"Save path", "Game ID", "Backup key", "Restore key", "Exit key"}

// MsgSettingsSaved 设置保存成功后的状态文本
const MsgSettingsSaved = "Settings saved"

type settingsSavedMsg struct{}

type settingsErrMsg struct{ err error }

// settingsForm 设置面板。三个热键选择器只提供另外两个热键未占用的选项，
// 因此保存时三个热键必然互不相同
type settingsForm struct {
	base  config.Config
	path  textinput.Model
	id    textinput.Model
	keys  [3]string
	focus int
	err   string
}

var (
	formNext = key.NewBinding(key.WithKeys("tab", "down"))
	formPrev = key.NewBinding(key.WithKeys("shift+tab", "up"))
	optNext  = key.NewBinding(key.WithKeys("right"))
	optPrev  = key.NewBinding(key.WithKeys("left"))
)

func newSettingsForm(cfg config.Config) *settingsForm {
	path := textinput.New()
	path.Prompt = ""
	path.CharLimit = 4096
	path.SetValue(cfg.SaveRoot)

	id := textinput.New()
	id.Prompt = ""
	id.CharLimit = 64
	id.SetValue(cfg.GameID)

	f := &settingsForm{
		base: cfg,
		path: path,
		id:   id,
		keys: [3]string{cfg.BackupKey, cfg.RestoreKey, cfg.ExitKey},
	}
	return f
}

func (f *settingsForm) focusCmd() tea.Cmd {
	f.path.Blur()
	f.id.Blur()
	switch f.focus {
	case fieldPath:
		return f.path.Focus()
	case fieldID:
		return f.id.Focus()
	}
	return nil
}

// options 第 i 个热键可选的按键
func (f *settingsForm) options(i int) []string {
	others := make([]string, 0, 2)
	for j, k := range f.keys {
		if j != i {
			others = append(others, k)
		}
	}
	return hotkey.Options(hotkey.Candidates, others...)
}

func (f *settingsForm) cycle(i, delta int) {
	opts := f.options(i)
	if len(opts) == 0 {
		return
	}
	idx := slices.IndexFunc(opts, func(k string) bool { return strings.EqualFold(k, f.keys[i]) })
	if idx < 0 {
		// 当前按键不在候选列表中，从第一个候选开始
		f.keys[i] = opts[0]
		return
	}
	f.keys[i] = opts[(idx+delta+len(opts))%len(opts)]
}

func (f *settingsForm) config() config.Config {
	cfg := f.base
	cfg.SaveRoot = strings.TrimSpace(f.path.Value())
	cfg.GameID = strings.TrimSpace(f.id.Value())
	cfg.BackupKey, cfg.RestoreKey, cfg.ExitKey = f.keys[0], f.keys[1], f.keys[2]
	return cfg
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.settings

	switch {
	case key.Matches(msg, keys.Cancel):
		m.settings = nil
		return m, nil

	case key.Matches(msg, keys.Activate):
		// 保存会触发 OnChange → Program.Send，必须在事件循环之外执行
		ctrl, cfg := m.ctrl, f.config()
		f.err = ""
		return m, func() tea.Msg {
			if err := ctrl.SaveSettings(cfg); err != nil {
				return settingsErrMsg{err: err}
			}
			return settingsSavedMsg{}
		}

	case key.Matches(msg, formNext):
		f.focus = (f.focus + 1) % fieldCount
		return m, f.focusCmd()

	case key.Matches(msg, formPrev):
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		return m, f.focusCmd()
	}

	if f.focus >= fieldBackup {
		switch {
		case key.Matches(msg, optNext):
			f.cycle(f.focus-fieldBackup, 1)
			return m, nil
		case key.Matches(msg, optPrev):
			f.cycle(f.focus-fieldBackup, -1)
			return m, nil
		}
	}

	// 功能键不会输入到文本框，仍然交给热键分发器
	if isFunctionKey(msg.String()) {
		m.forward(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldPath:
		f.path, cmd = f.path.Update(msg)
	case fieldID:
		f.id, cmd = f.id.Update(msg)
	}
	return m, cmd
}

func isFunctionKey(k string) bool {
	if len(k) < 2 || k[0] != 'f' {
		return false
	}
	for _, r := range k[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (f *settingsForm) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	for i, label := range fieldLabels {
		var value string
		switch i {
		case fieldPath:
			value = f.path.View()
		case fieldID:
			value = f.id.View()
		default:
			value = fmt.Sprintf("‹ %s ›", strings.ToUpper(f.keys[i-fieldBackup]))
		}

		row := labelStyle.Render(label) + value
		if i == f.focus {
			row = focusedRowStyle.Render(row)
		} else {
			row = rowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(failStyle.Render(f.err))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ 切换  ←/→ 选择按键  enter 保存  esc 返回"))
	return appStyle.Render(b.String())
}
