package toolcache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/any-hub/toolcache/pkg/platform"
)

// ToolGlob 构造查找用的模式 <root>/<name>/<version>/<arch>/。
// version 中的每个 x 都被替换为 *，arch 使用 GlobToken（Any 对应 **）。
func ToolGlob(root, name, version string, arch platform.Arch) string {
	pattern := strings.ReplaceAll(version, "x", "*")
	return withTrailingSeparator(filepath.Join(root, name, pattern, arch.GlobToken()))
}

// ToolPath 返回安装目标目录，版本号保持原样，最后一段为 arch.String()。
func ToolPath(root, name, version string, arch platform.Arch) string {
	return withTrailingSeparator(filepath.Join(root, name, version, arch.String()))
}

// ValidateName 拒绝可能改写目录结构的工具名。
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case name == "." || strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains traversal", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsAny(name, "*?[{"):
		return fmt.Errorf("%w: %q contains glob metacharacters", ErrInvalidName, name)
	}
	return nil
}

// ValidateVersion 允许 * 与 x 通配，但不允许版本号跨越目录层级。
func ValidateVersion(version string) error {
	switch {
	case version == "":
		return fmt.Errorf("%w: empty version", ErrInvalidVersion)
	case version == "." || strings.Contains(version, ".."):
		return fmt.Errorf("%w: %q contains traversal", ErrInvalidVersion, version)
	case strings.ContainsAny(version, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidVersion, version)
	}
	return nil
}

func withTrailingSeparator(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}
