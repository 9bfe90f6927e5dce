package toolcache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/any-hub/toolcache/pkg/platform"
)

// Tool 描述缓存根目录下一个已安装的 <name>/<version>/<arch> 目录。
type Tool struct {
	name    string
	version string
	arch    platform.Arch
	path    string
}

// NewTool 直接组装 Tool，不访问文件系统。
func NewTool(name, version string, arch platform.Arch, path string) Tool {
	return Tool{name: name, version: version, arch: arch, path: path}
}

// ToolFromPath 从路径末尾依次取出 arch、version、name。
func ToolFromPath(path string) (Tool, error) {
	trimmed := strings.TrimRight(filepath.ToSlash(path), "/")
	parts := strings.Split(trimmed, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) < 3 {
		return Tool{}, fmt.Errorf("%w: %s", ErrInvalidToolPath, path)
	}
	n := len(segments)
	return Tool{
		name:    segments[n-3],
		version: segments[n-2],
		arch:    platform.ParseArch(segments[n-1]),
		path:    path,
	}, nil
}

func (t Tool) Name() string {
	return t.name
}

func (t Tool) Version() string {
	return t.version
}

func (t Tool) Arch() platform.Arch {
	return t.arch
}

func (t Tool) Path() string {
	return t.path
}

// Join 返回工具目录下的子路径，例如 tool.Join("bin", "node")。
func (t Tool) Join(elem ...string) string {
	return filepath.Join(append([]string{t.path}, elem...)...)
}

func (t Tool) String() string {
	return t.path
}
