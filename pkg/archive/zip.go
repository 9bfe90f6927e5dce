package archive

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

func extractZip(ctx context.Context, archivePath string, box *sandbox) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return &FormatError{Format: FormatZip, Path: archivePath, Err: err}
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := box.join(file.Name)
		if err != nil {
			return err
		}
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, dirMode(mode)); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case mode&os.ModeSymlink != 0:
			linkTarget, err := readZipEntry(file)
			if err != nil {
				return wrapFormat(FormatZip, archivePath, err)
			}
			if err := box.checkLink(target, linkTarget); err != nil {
				return err
			}
			if err := box.prepare(target); err != nil {
				return err
			}
			if err := makeSymlink(linkTarget, target); err != nil {
				return err
			}
		default:
			if err := box.prepare(target); err != nil {
				return err
			}
			rc, err := file.Open()
			if err != nil {
				return wrapFormat(FormatZip, archivePath, fmt.Errorf("open zip entry %s: %w", file.Name, err))
			}
			err = writeFile(target, rc, fileMode(mode))
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func readZipEntry(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", fmt.Errorf("read zip entry %s: %w", file.Name, err)
	}
	return string(data), nil
}
