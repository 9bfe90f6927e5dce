package platform

import (
	"runtime"
	"strings"
)

// Arch 表示工具缓存目录中的 CPU 架构段。
type Arch int

const (
	ArchAny Arch = iota
	X64
	ARM64
)

// CurrentArch 返回当前进程的 CPU 架构。
func CurrentArch() Arch {
	return ArchFromCPU(runtime.GOARCH)
}

// ArchFromCPU 将 GOARCH 或 uname 风格的标识映射为 Arch，未知值映射为 ArchAny。
func ArchFromCPU(cpu string) Arch {
	switch strings.ToLower(strings.TrimSpace(cpu)) {
	case "amd64", "x86_64", "x64":
		return X64
	case "arm64", "aarch64":
		return ARM64
	default:
		return ArchAny
	}
}

// ParseArch 解析目录段或配置中的架构名称。
func ParseArch(raw string) Arch {
	return ArchFromCPU(raw)
}

// String 返回规范名称：x64、arm64、any。
func (a Arch) String() string {
	switch a {
	case X64:
		return "x64"
	case ARM64:
		return "arm64"
	default:
		return "any"
	}
}

// GlobToken 仅用于构建查找模式：ArchAny 展开为 "**"，匹配任意深度的架构目录。
func (a Arch) GlobToken() string {
	if a == ArchAny {
		return "**"
	}
	return a.String()
}

func (a Arch) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Arch) UnmarshalText(text []byte) error {
	*a = ParseArch(string(text))
	return nil
}
