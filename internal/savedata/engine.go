package savedata

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
)

// Engine 在存档目录和备份目录之间复制。
// 所有复制都持有同一把锁，面板和热键同时触发时串行执行
type Engine struct {
	mu     sync.Mutex
	source string
	backup string

	// progress 进度条输出，nil 表示不显示
	progress io.Writer
}

type Option func(*Engine)

// WithQuiet 不输出进度条，交互面板占用终端时使用
func WithQuiet(quiet bool) Option {
	return func(e *Engine) {
		if quiet {
			e.progress = nil
		}
	}
}

// WithProgressOutput 进度条写入 w，默认 stderr
func WithProgressOutput(w io.Writer) Option {
	return func(e *Engine) { e.progress = w }
}

func New(source, backup string, opts ...Option) *Engine {
	e := &Engine{source: source, backup: backup, progress: os.Stderr}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPaths 重新加载配置后替换路径，会等待正在进行的复制结束
func (e *Engine) SetPaths(source, backup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source, e.backup = source, backup
}

func (e *Engine) Paths() (source, backup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source, e.backup
}

// Backup 将存档目录合并复制到备份目录
func (e *Engine) Backup(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copy(ctx, e.source, e.backup, "正在备份")
}

// Restore 将备份目录合并复制回存档目录
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copy(ctx, e.backup, e.source, "正在还原")
}

func (e *Engine) copy(ctx context.Context, src, dst, description string) error {
	if err := checkSource(src); err != nil {
		return err
	}
	bar := newProgressBar(countFiles(src), description, e.progress)
	defer bar.Close()

	if err := CopyTree(ctx, src, dst, bar); err != nil {
		return err
	}
	log.Printf("复制完成: %s → %s", src, dst)
	return nil
}
