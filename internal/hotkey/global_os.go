//go:build windows || (linux && cgo)

package hotkey

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

var globalKeys = map[string]hotkey.Key{
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// ListenGlobal 在系统层面监听绑定的热键，游戏窗口在前台时也能触发。
// 阻塞到 ctx 结束
func ListenGlobal(ctx context.Context, d *Dispatcher) error {
	return listenGlobal(ctx, d, grabKey)
}

func grabKey(name string) (<-chan struct{}, func(), error) {
	k, ok := globalKeys[strings.ToLower(name)]
	if !ok {
		return nil, nil, fmt.Errorf("不支持的系统热键: %s", name)
	}

	hk := hotkey.New(nil, k)
	if err := hk.Register(); err != nil {
		return nil, nil, err
	}

	out := make(chan struct{})
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-hk.Keydown():
				select {
				case out <- struct{}{}:
				case <-done:
					return
				}
			}
		}
	}()

	return out, func() {
		close(done)
		hk.Unregister()
	}, nil
}
