package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sandbox 把一次解包的所有写入限制在 dest 内。
// 条目路径先做词法校验，写入前再按磁盘上的真实路径（已解析符号链接）复核，
// 因此先前条目创建的符号链接无法把后续条目带出 dest。
type sandbox struct {
	dest string
	real string
}

func newSandbox(dest string) (*sandbox, error) {
	real, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return nil, fmt.Errorf("resolve extract dir: %w", err)
	}
	return &sandbox{dest: filepath.Clean(dest), real: real}, nil
}

// join 把条目名拼接到 dest 下，拒绝绝对路径与越界的 ".."。
func (s *sandbox) join(name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(s.dest, clean)
	if !isWithin(target, s.dest) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// parent 返回 target 所在目录的真实路径，并确认它仍在 dest 内。
func (s *sandbox) parent(target string) (string, error) {
	dir, err := realPath(filepath.Dir(target))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	if !isWithin(dir, s.real) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrUnsafePath, target, dir)
	}
	return dir, nil
}

// prepare 校验父目录并移除 target 处已有的符号链接或文件，避免写入穿过链接。
func (s *sandbox) prepare(target string) error {
	if _, err := s.parent(target); err != nil {
		return err
	}
	info, err := os.Lstat(target)
	if err != nil {
		return nil
	}
	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("replace %s: %w", target, err)
		}
	}
	return nil
}

// checkLink 校验符号链接目标：相对目标以链接所在目录的真实路径为基准，必须落在 dest 内。
func (s *sandbox) checkLink(target, linkTarget string) error {
	if linkTarget == "" {
		return fmt.Errorf("%w: empty link target for %s", ErrUnsafePath, target)
	}
	resolvedTarget := filepath.FromSlash(linkTarget)
	if filepath.IsAbs(resolvedTarget) || filepath.VolumeName(resolvedTarget) != "" {
		return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, target, linkTarget)
	}
	dir, err := s.parent(target)
	if err != nil {
		return err
	}
	if !isWithin(filepath.Join(dir, resolvedTarget), s.real) {
		return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, target, linkTarget)
	}
	return nil
}

// linkSource 校验硬链接源：必须是 dest 内已存在的普通文件。
func (s *sandbox) linkSource(name string) (string, error) {
	source, err := s.join(name)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(source)
	if err != nil {
		return "", fmt.Errorf("resolve link source %s: %w", name, err)
	}
	if !isWithin(real, s.real) {
		return "", fmt.Errorf("%w: hard link source %s", ErrUnsafePath, name)
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("stat link source %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: hard link source %s is not a regular file", ErrUnsafePath, name)
	}
	return real, nil
}

// realPath 解析 p 中已存在部分的符号链接，尚不存在的尾部原样拼接。
func realPath(p string) (string, error) {
	var rest []string
	cur := filepath.Clean(p)
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		// 悬空链接视作不存在；其后的 MkdirAll 会因链接不是目录而失败。
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
