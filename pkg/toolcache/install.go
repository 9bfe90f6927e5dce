package toolcache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/toolcache/pkg/download"
)

// TempDirName 是根目录下存放下载中归档的子目录。
const TempDirName = ".tmp"

// ErrInvalidAsset 表示 Asset 缺少可下载的 URL。
var ErrInvalidAsset = errors.New("invalid asset")

// Install 下载 asset 到 <root>/.tmp，再解包到 NewToolPath(name, version)。
// 同一条目的并发安装不加锁，后写入者覆盖先写入者。
func (s *Store) Install(ctx context.Context, name, version string, asset download.Asset) (Tool, error) {
	target, err := s.NewToolPath(name, version)
	if err != nil {
		return Tool{}, err
	}
	if strings.TrimSpace(asset.URL) == "" {
		return Tool{}, fmt.Errorf("%w: url is required", ErrInvalidAsset)
	}

	tmpDir := filepath.Join(s.root, TempDirName)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return Tool{}, fmt.Errorf("prepare temp dir: %w", err)
	}
	archivePath := filepath.Join(tmpDir, uuid.NewString()+archiveSuffix(asset))
	defer os.Remove(archivePath)

	logger := s.logger.WithFields(logrus.Fields{
		"action":  "install",
		"tool":    name,
		"version": version,
		"arch":    s.arch.String(),
		"url":     asset.URL,
	})
	start := time.Now()

	if err := s.downloader().Download(ctx, asset, archivePath); err != nil {
		logger.WithError(err).Warn("install_download_failed")
		return Tool{}, err
	}
	if err := s.extractor.Extract(ctx, archivePath, target); err != nil {
		logger.WithError(err).Warn("install_extract_failed")
		return Tool{}, err
	}

	toolDir := strings.TrimSuffix(target, string(filepath.Separator))
	logger.WithFields(logrus.Fields{
		"path":       toolDir,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("install_complete")
	return NewTool(name, version, s.arch, toolDir), nil
}

func (s *Store) downloader() *download.Downloader {
	return download.New(download.Options{
		Client:    s.client,
		Retries:   s.retryCount,
		Backoff:   s.backoff,
		UserAgent: s.userAgent,
		Logger:    s.logger,
	})
}

// archiveSuffix 保留归档扩展名，解包时依赖它选择格式。
func archiveSuffix(asset download.Asset) string {
	name := asset.Name
	if name == "" {
		if parsed, err := url.Parse(asset.URL); err == nil {
			name = path.Base(parsed.Path)
		}
	}
	name = path.Base(filepath.ToSlash(name))
	lower := strings.ToLower(name)
	for _, compound := range []string{".tar.gz", ".tar.xz"} {
		if strings.HasSuffix(lower, compound) {
			return name[len(name)-len(compound):]
		}
	}
	ext := path.Ext(name)
	if ext == "." {
		return ""
	}
	return ext
}
