package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format 标识解包方式，仅由文件扩展名决定。
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTar   Format = "tar"
	FormatTarXz Format = "tar.xz"
)

var (
	// ErrInvalidInput 是调用方可恢复的输入错误类别。
	ErrInvalidInput = errors.New("invalid archive input")
	// ErrUnknownFormat 表示扩展名无法识别，目标目录不会被触碰。
	ErrUnknownFormat = fmt.Errorf("%w: unknown archive format", ErrInvalidInput)
	// ErrUnsafePath 表示归档条目会落到目标目录之外。
	ErrUnsafePath = errors.New("archive entry escapes destination")
)

// FormatError 包装具体格式在解包过程中的失败，按 IO 类错误向上传播。
type FormatError struct {
	Format Format
	Path   string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("extract %s archive %s: %v", e.Format, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DetectFormat 根据扩展名选择解包方式：.zip、.gz/.tgz、.tar、.xz/.txz。
func DetectFormat(archivePath string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(archivePath))
	switch ext {
	case ".zip":
		return FormatZip, nil
	case ".gz", ".tgz":
		return FormatTarGz, nil
	case ".tar":
		return FormatTar, nil
	case ".xz", ".txz":
		return FormatTarXz, nil
	case "":
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, filepath.Base(archivePath))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, ext)
	}
}

// Options 配置 Extractor；Runner 仅在需要调用宿主 tar 时使用。
type Options struct {
	Runner CommandRunner
	Logger logrus.FieldLogger
}

// Extractor 把下载好的归档解包到目标目录。
type Extractor struct {
	runner CommandRunner
	logger logrus.FieldLogger
}

// NewExtractor 构建 Extractor，未提供的依赖使用默认实现。
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{runner: opts.Runner, logger: opts.Logger}
	if e.runner == nil {
		e.runner = ExecRunner{}
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	return e
}

var defaultExtractor = NewExtractor(Options{})

// Extract 使用默认 Extractor 解包。
func Extract(ctx context.Context, archivePath, dest string) error {
	return defaultExtractor.Extract(ctx, archivePath, dest)
}

// Extract 先按扩展名分派，格式未知时直接返回 ErrUnknownFormat；
// 之后创建 dest 并把所有条目限制在 dest 之内。
func (e *Extractor) Extract(ctx context.Context, archivePath, dest string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("prepare extract dir: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"action":  "extract",
		"archive": archivePath,
		"dest":    dest,
		"format":  string(format),
	}).Debug("extract_start")

	switch format {
	case FormatZip, FormatTarGz, FormatTar:
		box, boxErr := newSandbox(dest)
		if boxErr != nil {
			return boxErr
		}
		switch format {
		case FormatZip:
			err = extractZip(ctx, archivePath, box)
		case FormatTarGz:
			err = extractTarGz(ctx, archivePath, box)
		default:
			err = extractTar(ctx, archivePath, box)
		}
	case FormatTarXz:
		err = e.extractTarXz(ctx, archivePath, dest)
	}
	if err != nil {
		var formatErr *FormatError
		if errors.As(err, &formatErr) || errors.Is(err, ErrUnsafePath) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &FormatError{Format: format, Path: archivePath, Err: err}
	}
	return nil
}

func (e *Extractor) extractTarXz(ctx context.Context, archivePath, dest string) error {
	_, stderr, code, err := e.runner.Run(ctx, "tar", "-xJf", archivePath, "-C", dest)
	if err != nil {
		return fmt.Errorf("tar exited %d: %v: %s", code, err, strings.TrimSpace(string(stderr)))
	}
	// tar 在部分失败时也可能返回 0，需要再次确认目标目录存在。
	info, statErr := os.Stat(dest)
	if statErr != nil || !info.IsDir() {
		return fmt.Errorf("destination %s missing after extraction", dest)
	}
	return nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}

func dirMode(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o755
	}
	// 目录至少需要 owner 可写可进入，否则后续条目无法写入。
	return perm | 0o700
}

func fileMode(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	return perm
}
