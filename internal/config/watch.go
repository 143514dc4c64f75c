package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch 监听配置文件变化，每次成功重新加载后调用 onChange。
// 监听的是所在目录，编辑器通过重命名保存时新文件以 Create 事件出现。
// 文件被移走或删除时保持当前配置；内容未变化时不回调
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("解析配置路径失败 (%s): %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("监听配置目录失败 (%s): %w", filepath.Dir(abs), err)
	}

	last, _ := Read(abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			cfg, err := Read(abs)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				log.Printf("重新加载配置失败: %v", err)
				continue
			}
			if cfg == last {
				continue
			}
			last = cfg
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("配置监听错误: %v", err)
		}
	}
}
