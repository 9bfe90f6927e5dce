package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

func extractTarGz(ctx context.Context, archivePath string, box *sandbox) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return &FormatError{Format: FormatTarGz, Path: archivePath, Err: err}
	}
	defer gz.Close()

	if err := untarStream(ctx, gz, box); err != nil {
		return wrapFormat(FormatTarGz, archivePath, err)
	}
	return nil
}

func extractTar(ctx context.Context, archivePath string, box *sandbox) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	if err := untarStream(ctx, file, box); err != nil {
		return wrapFormat(FormatTar, archivePath, err)
	}
	return nil
}

func untarStream(ctx context.Context, r io.Reader, box *sandbox) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := box.join(header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, dirMode(header.FileInfo().Mode())); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := writeFile(target, tr, fileMode(header.FileInfo().Mode())); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := box.checkLink(target, header.Linkname); err != nil {
				return err
			}
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := makeSymlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := box.linkSource(header.Linkname)
			if err != nil {
				return err
			}
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("prepare link %s: %w", target, err)
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("create hard link %s: %w", target, err)
			}
		default:
			// 设备文件、FIFO 等条目对工具安装没有意义，直接跳过。
		}
	}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare file %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func makeSymlink(linkTarget, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare symlink %s: %w", target, err)
	}
	if err := os.Symlink(filepath.FromSlash(linkTarget), target); err != nil {
		return fmt.Errorf("create symlink %s: %w", target, err)
	}
	return nil
}

func wrapFormat(format Format, archivePath string, err error) error {
	if errors.Is(err, ErrUnsafePath) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &FormatError{Format: format, Path: archivePath, Err: err}
}
