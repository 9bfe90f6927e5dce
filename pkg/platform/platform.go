// Package platform maps the host OS and CPU onto the small vocabulary used by
// the tool cache: Linux/MacOS/Windows/Any and X64/ARM64/Any. Every mapping is
// total; unknown identifiers resolve to Any instead of an error.
package platform

import (
	"runtime"
	"strings"
)

// Platform 表示工具缓存关心的操作系统族，Any 为通配值。
type Platform int

const (
	Any Platform = iota
	Linux
	MacOS
	Windows
)

// CurrentPlatform 返回当前进程所在的平台，进程生命周期内不变。
func CurrentPlatform() Platform {
	return PlatformFromOS(runtime.GOOS)
}

// PlatformFromOS 将 GOOS 风格的标识映射为 Platform，未知值映射为 Any。
func PlatformFromOS(goos string) Platform {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "linux":
		return Linux
	case "darwin", "macos":
		return MacOS
	case "windows":
		return Windows
	default:
		return Any
	}
}

// ParsePlatform 解析配置或命令行中的平台名称，大小写不敏感。
func ParsePlatform(raw string) Platform {
	return PlatformFromOS(raw)
}

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case Windows:
		return "windows"
	default:
		return "any"
	}
}

// MarshalText 输出规范的小写名称，供 JSON/YAML/配置使用。
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 与 ParsePlatform 一致，未知值不会报错。
func (p *Platform) UnmarshalText(text []byte) error {
	*p = ParsePlatform(string(text))
	return nil
}

// DefaultArch 返回托管 runner 在该平台上的惯例架构：Windows/Linux 为 X64，
// MacOS 为 ARM64。这是约定而非硬件探测。
func DefaultArch(p Platform) Arch {
	switch p {
	case Windows, Linux:
		return X64
	case MacOS:
		return ARM64
	default:
		return ArchAny
	}
}
