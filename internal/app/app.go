// Package app 保存运行期的全部状态：当前配置、复制引擎和热键分发器。
// 启动时构造一次，配置变化时原地应用，不需要重启进程。
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/leijux/savekeeper/internal/config"
	"github.com/leijux/savekeeper/internal/hotkey"
	"github.com/leijux/savekeeper/internal/savedata"
)

type App struct {
	path string

	mu  sync.RWMutex
	cfg config.Config

	// saveMu 串行化 SaveSettings 和文件监听触发的 reload
	saveMu sync.Mutex

	engine     *savedata.Engine
	dispatcher *hotkey.Dispatcher

	// OnChange 配置应用后调用
	OnChange func(config.Config)
}

// New 加载配置（不存在时写入默认值）并构造引擎和分发器
func New(path string, opts ...savedata.Option) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	a := &App{
		path:   path,
		cfg:    cfg,
		engine: savedata.New(cfg.SourceDir(), cfg.BackupRoot(), opts...),
	}
	a.dispatcher = hotkey.NewDispatcher(bindingsOf(cfg), a)
	return a, nil
}

func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) ConfigPath() string { return a.path }

func (a *App) Engine() *savedata.Engine { return a.engine }

func (a *App) Dispatcher() *hotkey.Dispatcher { return a.dispatcher }

func (a *App) Backup(ctx context.Context) savedata.Status {
	return savedata.Report(savedata.OpBackup, a.engine.Backup(ctx))
}

func (a *App) Restore(ctx context.Context) savedata.Status {
	return savedata.Report(savedata.OpRestore, a.engine.Restore(ctx))
}

// SaveSettings 覆盖写入配置文件并立即生效
func (a *App) SaveSettings(cfg config.Config) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if err := config.Save(a.path, cfg); err != nil {
		return err
	}
	a.Apply(cfg)
	return nil
}

// Apply 重新计算路径和热键绑定
func (a *App) Apply(cfg config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.engine.SetPaths(cfg.SourceDir(), cfg.BackupRoot())
	a.dispatcher.SetBindings(bindingsOf(cfg))
	log.Printf("配置已生效: id=%s path=%s 热键=%s/%s/%s", cfg.GameID, cfg.SaveRoot, cfg.BackupKey, cfg.RestoreKey, cfg.ExitKey)

	if a.OnChange != nil {
		a.OnChange(cfg)
	}
}

// Watch 监听配置文件，外部修改后原地应用
func (a *App) Watch(ctx context.Context) error {
	return config.Watch(ctx, a.path, func(cfg config.Config) { a.reload(cfg) })
}

// reload 与当前配置相同时跳过，SaveSettings 写文件引起的事件不会重复应用
func (a *App) reload(cfg config.Config) bool {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if cfg == a.Config() {
		return false
	}
	a.Apply(cfg)
	return true
}

func bindingsOf(cfg config.Config) hotkey.Bindings {
	return hotkey.Bindings{
		Backup:  cfg.BackupKey,
		Restore: cfg.RestoreKey,
		Exit:    cfg.ExitKey,
	}
}
