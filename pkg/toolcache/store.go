package toolcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/toolcache/pkg/archive"
	"github.com/any-hub/toolcache/pkg/platform"
)

// Store 管理磁盘上的工具缓存。目录布局遵循：
//
//	<root>/<name>/<version>/<arch>/
//
// 除已废弃的 SetRetryCount 外，构建完成后不可修改，可被多个 goroutine 共享。
type Store struct {
	root       string
	platform   platform.Platform
	arch       platform.Arch
	retryCount int
	backoff    time.Duration
	userAgent  string
	client     *http.Client
	logger     *logrus.Logger
	extractor  *archive.Extractor
}

// NewStore 根据 Options 构建 Store，并确保根目录存在。
func NewStore(opts Options) (*Store, error) {
	r, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	return &Store{
		root:       r.root,
		platform:   r.platform,
		arch:       r.arch,
		retryCount: r.retryCount,
		backoff:    r.backoff,
		userAgent:  r.userAgent,
		client:     r.client,
		logger:     r.logger,
		extractor:  r.extractor,
	}, nil
}

// New 使用进程环境快照和默认候选目录构建 Store。
func New() (*Store, error) {
	return NewBuilder().Env(EnvFromOS()).Build()
}

// Open 以已存在的目录作为缓存根目录。
func Open(path string) (*Store, error) {
	if err := requireDir(path); err != nil {
		return nil, err
	}
	return NewBuilder().Root(path).Build()
}

// MustOpen 与 Open 相同，但目录不存在时直接 panic，供测试夹具使用。
func MustOpen(path string) *Store {
	store, err := Open(path)
	if err != nil {
		panic(fmt.Sprintf("toolcache: open %s: %v", path, err))
	}
	return store
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Platform() platform.Platform {
	return s.platform
}

func (s *Store) Arch() platform.Arch {
	return s.arch
}

func (s *Store) RetryCount() int {
	return s.retryCount
}

func (s *Store) Client() *http.Client {
	return s.client
}

// SetRetryCount 修改下载重试次数。
//
// Deprecated: 使用 Builder.RetryCount 在构建时设置。
func (s *Store) SetRetryCount(count int) {
	if count < 0 {
		count = 0
	}
	s.retryCount = count
}

// Find 使用平台默认架构查找工具：Linux/Windows 为 x64，macOS 为 arm64，Any 不限架构。
func (s *Store) Find(ctx context.Context, name, version string) (Tool, error) {
	return s.FindWithArch(ctx, name, version, platform.DefaultArch(s.platform))
}

// FindWithArch 返回第一个名称完全一致的匹配目录，未命中时返回 *ToolNotFoundError。
func (s *Store) FindWithArch(ctx context.Context, name, version string, arch platform.Arch) (Tool, error) {
	if err := ValidateName(name); err != nil {
		return Tool{}, err
	}
	if err := ValidateVersion(version); err != nil {
		return Tool{}, err
	}

	tools, err := s.scan(ctx, name, version, arch)
	if err != nil {
		return Tool{}, err
	}
	for _, tool := range tools {
		if tool.Name() == name {
			s.logger.WithFields(logrus.Fields{
				"action":  "find",
				"tool":    name,
				"version": tool.Version(),
				"arch":    tool.Arch().String(),
			}).Debug("tool_found")
			return tool, nil
		}
	}
	return Tool{}, &ToolNotFoundError{Name: name, Version: version, Arch: arch}
}

// FindAllVersions 列出所有版本与架构的安装目录，顺序不作保证。
func (s *Store) FindAllVersions(ctx context.Context, name string) ([]Tool, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	tools, err := s.scan(ctx, name, "*", platform.ArchAny)
	if err != nil {
		return nil, err
	}
	filtered := tools[:0]
	for _, tool := range tools {
		if tool.Name() == name {
			filtered = append(filtered, tool)
		}
	}
	return filtered, nil
}

// NewToolPath 返回当前架构下的安装目录，不会创建目录。
func (s *Store) NewToolPath(name, version string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := ValidateVersion(version); err != nil {
		return "", err
	}
	if strings.ContainsAny(version, "*?[{") {
		return "", fmt.Errorf("%w: %q is a pattern, not a concrete version", ErrInvalidVersion, version)
	}
	return ToolPath(s.root, name, version, s.arch), nil
}

// scan 遍历 <root>/<name>/*/* 并用 ToolGlob 过滤，只保留 <name>/<version>/<arch> 深度的目录。
// version 与 arch 段不区分大小写；名称段按原样查找，并由调用方再次比对。
func (s *Store) scan(ctx context.Context, name, version string, arch platform.Arch) ([]Tool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern, err := filepath.Rel(s.root, ToolGlob(s.root, name, version, arch))
	if err != nil {
		return nil, fmt.Errorf("build tool pattern: %w", err)
	}
	pattern = strings.ToLower(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q is not a valid pattern", ErrInvalidVersion, version)
	}

	var tools []Tool
	walkErr := doublestar.GlobWalk(os.DirFS(s.root), name+"/*/*", func(match string, _ fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.Count(match, "/") != 2 {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, strings.ToLower(match)); !ok {
			return nil
		}
		full := filepath.Join(s.root, filepath.FromSlash(match))
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			return nil
		}
		tool, err := ToolFromPath(full)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"action": "scan",
				"path":   full,
			}).WithError(err).Debug("tool_path_skipped")
			return nil
		}
		tools = append(tools, tool)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("scan tool cache: %w", walkErr)
	}
	return tools, nil
}
