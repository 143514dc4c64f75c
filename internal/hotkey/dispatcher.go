package hotkey

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/leijux/savekeeper/internal/savedata"
)

type Action int

const (
	ActionBackup Action = iota
	ActionRestore
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionBackup:
		return "backup"
	case ActionRestore:
		return "restore"
	case ActionExit:
		return "exit"
	}
	return "unknown"
}

// Bindings 配置中的三个热键
type Bindings struct {
	Backup  string
	Restore string
	Exit    string
}

// Match 不区分大小写地匹配按键名
func (b Bindings) Match(key string) (Action, bool) {
	switch {
	case strings.EqualFold(key, b.Backup):
		return ActionBackup, true
	case strings.EqualFold(key, b.Restore):
		return ActionRestore, true
	case strings.EqualFold(key, b.Exit):
		return ActionExit, true
	}
	return 0, false
}

// Operator 热键触发的两个操作
type Operator interface {
	Backup(ctx context.Context) savedata.Status
	Restore(ctx context.Context) savedata.Status
}

const queueSize = 16

// Dispatcher 在独立的 goroutine 中消费按键，与交互面板互不阻塞
type Dispatcher struct {
	mu       sync.RWMutex
	bindings Bindings

	op      Operator
	keys    chan string
	changed chan struct{}

	// OnStatus 每次备份或还原结束后调用，OnExit 在按下退出键时调用
	OnStatus func(savedata.Status)
	OnExit   func()
}

func NewDispatcher(b Bindings, op Operator) *Dispatcher {
	return &Dispatcher{
		bindings: b,
		op:       op,
		keys:     make(chan string, queueSize),
		changed:  make(chan struct{}, 1),
	}
}

func (d *Dispatcher) Bindings() Bindings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bindings
}

// SetBindings 替换热键，并通知系统热键监听重新注册
func (d *Dispatcher) SetBindings(b Bindings) {
	d.mu.Lock()
	d.bindings = b
	d.mu.Unlock()

	select {
	case d.changed <- struct{}{}:
	default:
	}
}

// Press 投递一次按键，不阻塞；队列满时丢弃
func (d *Dispatcher) Press(key string) {
	select {
	case d.keys <- key:
	default:
		log.Printf("热键队列已满，丢弃按键: %s", key)
	}
}

// Run 持续处理按键直到 ctx 结束
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case key := <-d.keys:
			d.Handle(ctx, key)
		}
	}
}

// Handle 同步处理一次按键，未绑定的按键被忽略
func (d *Dispatcher) Handle(ctx context.Context, key string) (Action, bool) {
	action, ok := d.Bindings().Match(key)
	if !ok {
		return 0, false
	}

	var st savedata.Status
	switch action {
	case ActionBackup:
		st = d.op.Backup(ctx)
	case ActionRestore:
		st = d.op.Restore(ctx)
	case ActionExit:
		if d.OnExit != nil {
			d.OnExit()
		}
		return action, true
	}

	if d.OnStatus != nil {
		d.OnStatus(st)
	}
	return action, true
}
