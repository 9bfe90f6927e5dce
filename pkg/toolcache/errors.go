package toolcache

import (
	"errors"
	"fmt"

	"github.com/any-hub/toolcache/pkg/platform"
)

var (
	// ErrNotFound 表示缓存中不存在满足条件的工具目录。
	ErrNotFound = errors.New("tool not found")
	// ErrInvalidName 表示工具名包含路径分隔符、遍历片段或通配符。
	ErrInvalidName = errors.New("invalid tool name")
	// ErrInvalidVersion 表示版本号会逃逸出工具目录。
	ErrInvalidVersion = errors.New("invalid tool version")
	// ErrInvalidToolPath 表示路径不足三段，无法拆出 name/version/arch。
	ErrInvalidToolPath = errors.New("invalid tool path")
	// ErrInvalidRoot 表示缓存根目录不存在或不是目录。
	ErrInvalidRoot = errors.New("invalid tool cache root")
)

// ToolNotFoundError 记录一次未命中的完整查询条件，便于调用方直接展示。
type ToolNotFoundError struct {
	Name    string
	Version string
	Arch    platform.Arch
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %s (version %s, arch %s) not found", e.Name, e.Version, e.Arch)
}

// Is 让 errors.Is(err, ErrNotFound) 对 ToolNotFoundError 成立。
func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
