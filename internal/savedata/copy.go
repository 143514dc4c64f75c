package savedata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound 复制方向上的源目录不存在
var ErrNotFound = errors.New("save data not found")

// CopyTree 将 src 目录合并复制到 dst：同名文件覆盖，dst 中多出的文件保留。
// 符号链接会被跟随，复制的是目标内容。src 不存在时返回 ErrNotFound，且不会创建 dst
func CopyTree(ctx context.Context, src, dst string, bar *progressbar.ProgressBar) error {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	if err != nil {
		return fmt.Errorf("读取路径信息失败 (%s): %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("源路径不是目录: %s", src)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU()) // 限制并发量

	root := src
	seen := make(map[string]bool)
	if real, err := filepath.EvalSymlinks(src); err == nil {
		root = real
		seen[real] = true
	}

	walkErr := copyDir(ctx, g, root, dst, bar, seen)
	if err := g.Wait(); err != nil {
		return err
	}
	return walkErr
}

func copyDir(ctx context.Context, g *errgroup.Group, src, dst string, bar *progressbar.ProgressBar, seen map[string]bool) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()|0700); err != nil {
				return fmt.Errorf("创建目录失败 (%s): %w", target, err)
			}
			return nil

		case d.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("读取链接目标失败 (%s): %w", path, err)
			}
			if !info.IsDir() {
				break
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("解析链接失败 (%s): %w", path, err)
			}
			if seen[real] {
				log.Printf("跳过循环链接: %s", path)
				return nil
			}
			seen[real] = true
			return copyDir(ctx, g, real, target, bar, seen)

		case !d.Type().IsRegular():
			log.Printf("跳过特殊文件: %s", path)
			return nil
		}

		g.Go(func() error {
			if err := copyFile(path, target); err != nil {
				return fmt.Errorf("复制文件失败 (%s): %w", path, err)
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
		return nil
	})
}

// copyFile 复制文件内容，并保留权限和修改时间
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// countFiles 统计待复制的文件数，用于进度条
func countFiles(root string) int {
	count := 0
	filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// newProgressBar out 为 nil 时不输出，否则与 progressbar.Default 的样式相同
func newProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions64(int64(total),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// checkSource 源目录不存在时返回 ErrNotFound
func checkSource(src string) error {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	return nil
}
