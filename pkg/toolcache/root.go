package toolcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvToolCache 是 runner 注入缓存根目录所用的环境变量。
const EnvToolCache = "RUNNER_TOOL_CACHE"

// FallbackRoot 在所有候选目录都不可用时使用，相对当前工作目录。
const FallbackRoot = ".toolcache"

var (
	unixCandidates = []string{
		"/opt/hostedtoolcache",
		"/usr/local/share/toolcache",
		"/tmp/toolcache",
	}
	windowsCandidates = []string{
		`C:\hostedtoolcache`,
		`C:\Program Files\toolcache`,
		`C:\tmp\toolcache`,
	}
)

// Env 是一次性的环境变量快照，解析根目录时只读取它而不访问进程环境。
type Env map[string]string

// Get 返回 key 对应的值，缺失时为空字符串。
func (e Env) Get(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// EnvFromOS 拍下当前进程环境的快照。
func EnvFromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// DefaultCandidates 返回指定 GOOS 下依次尝试的缓存目录。
func DefaultCandidates(goos string) []string {
	if goos == "windows" {
		return append([]string(nil), windowsCandidates...)
	}
	return append([]string(nil), unixCandidates...)
}

// ResolveRoot 按以下顺序选择缓存根目录：
//
//  1. env 中的 RUNNER_TOOL_CACHE；
//  2. candidates 中第一个 mkdir 成功的目录；
//  3. 当前目录下的 .toolcache（绝对路径）。
//
// 结果只取决于入参，mkdir 由调用方注入。
func ResolveRoot(env Env, candidates []string, mkdir func(string) error) (string, error) {
	if root := env.Get(EnvToolCache); root != "" {
		return root, nil
	}
	if mkdir != nil {
		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			if err := mkdir(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	abs, err := filepath.Abs(FallbackRoot)
	if err != nil {
		return "", fmt.Errorf("resolve fallback root: %w", err)
	}
	return abs, nil
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func ensureRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve tool cache root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create tool cache root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat tool cache root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}
	return abs, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrInvalidRoot, path)
		}
		return fmt.Errorf("stat tool cache root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, path)
	}
	return nil
}
