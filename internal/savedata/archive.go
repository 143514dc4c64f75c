package savedata

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/flate"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Export 将备份目录打包为 zip，条目路径相对于备份目录
func (e *Engine) Export(ctx context.Context, zipPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkSource(e.backup); err != nil {
		return err
	}
	bar := newProgressBar(countFiles(e.backup), "正在导出", e.progress)
	defer bar.Close()
	return writeArchive(ctx, e.backup, zipPath, bar)
}

// RestoreArchive 将 zip 备份包合并解压到存档目录
func (e *Engine) RestoreArchive(ctx context.Context, zipPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkSource(zipPath); err != nil {
		return err
	}
	return extractArchive(ctx, zipPath, e.source, e.progress)
}

func writeArchive(ctx context.Context, root, zipPath string, bar *progressbar.ProgressBar) error {
	dir := filepath.Dir(zipPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(zipPath)+".tmp")
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if d.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}
		if !d.Type().IsRegular() {
			log.Printf("跳过非普通文件: %s", path)
			return nil
		}

		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if err := addFile(w, path); err != nil {
			return fmt.Errorf("写入失败 (%s): %w", path, err)
		}
		bar.Add(1)
		return nil
	})
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("写入 zip 失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入 zip 失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), zipPath); err != nil {
		return fmt.Errorf("替换输出文件失败: %w", err)
	}
	return nil
}

func addFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func extractArchive(ctx context.Context, zipPath, dst string, progress io.Writer) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("无法打开备份文件: %w", err)
	}
	defer r.Close()

	r.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	// 先校验全部条目，避免写出一半后才发现非法路径
	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return fmt.Errorf("备份文件包含非法路径: %s", f.Name)
		}
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	var files []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(filepath.Join(dst, filepath.FromSlash(f.Name)), 0755); err != nil {
				return err
			}
			continue
		}
		files = append(files, f)
	}

	bar := newProgressBar(len(files), "正在还原", progress)
	defer bar.Close()

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, runtime.NumCPU())

	for _, f := range files {
		targetPath := filepath.Join(dst, filepath.FromSlash(f.Name))
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				return err
			}
			if err := extractFile(f, targetPath); err != nil {
				return fmt.Errorf("还原文件 %s 失败: %w", targetPath, err)
			}
			bar.Add(1)
			return nil
		})
	}

	return g.Wait()
}

func extractFile(f *zip.File, targetPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return err
	}

	outFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(outFile, rc); err != nil {
		outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return err
	}
	if f.Modified.IsZero() {
		return nil
	}
	return os.Chtimes(targetPath, f.Modified, f.Modified)
}
