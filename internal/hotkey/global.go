package hotkey

import (
	"context"
	"fmt"
	"log"
)

// grabber 在系统中注册一个热键，返回按下事件和注销函数
type grabber func(name string) (<-chan struct{}, func(), error)

// listenGlobal 注册当前绑定的三个热键并把按下事件投递给分发器。
// 绑定变化后注销旧热键、注册新热键；首次一个都注册不上时返回错误
func listenGlobal(ctx context.Context, d *Dispatcher, grab grabber) error {
	first := true
	for {
		b := d.Bindings()
		stop := make(chan struct{})
		var releases []func()
		var firstErr error

		for _, name := range []string{b.Backup, b.Restore, b.Exit} {
			down, release, err := grab(name)
			if err != nil {
				log.Printf("注册系统热键 %s 失败: %v", name, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			releases = append(releases, release)
			go func() {
				for {
					select {
					case <-stop:
						return
					case <-down:
						d.Press(name)
					}
				}
			}()
		}

		unregister := func() {
			close(stop)
			for _, release := range releases {
				release()
			}
		}

		if first && len(releases) == 0 && firstErr != nil {
			unregister()
			return fmt.Errorf("无法注册系统热键: %w", firstErr)
		}
		first = false

		select {
		case <-ctx.Done():
			unregister()
			return nil
		case <-d.changed:
			unregister()
		}
	}
}
