// Package cli 实现 toolcache 命令行：查找、列出、安装与解包工具，以及只读 HTTP 服务。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/toolcache/internal/config"
	"github.com/any-hub/toolcache/internal/logging"
	"github.com/any-hub/toolcache/pkg/archive"
	"github.com/any-hub/toolcache/pkg/platform"
	"github.com/any-hub/toolcache/pkg/toolcache"
)

// 退出码约定：0 成功，1 运行失败，2 参数错误。
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Env 汇总 CLI 需要的外部依赖，测试中可整体替换。
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
	// Environ 为 Store 提供环境快照；缺少 RUNNER_TOOL_CACHE 时回退到 Getenv。
	Environ toolcache.Env
	// Candidates 覆盖默认缓存根目录候选列表，为空时使用平台默认值。
	Candidates []string
}

// usageError 标记参数类错误，Run 将其映射为退出码 2。
type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

func (e usageError) Unwrap() error {
	return e.err
}

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// globalOptions 汇总全局标志解析后的结果。
type globalOptions struct {
	configPath string
	root       string
	arch       string
	platform   string
}

// app 在单次命令执行期间缓存配置、日志与 Store。
type app struct {
	env  Env
	opts globalOptions

	cfg    *config.Config
	logger *logrus.Logger
	store  *toolcache.Store
}

// Run 执行一次 CLI 调用并返回退出码。
func Run(ctx context.Context, args []string, env Env) int {
	if env.Getenv == nil {
		env.Getenv = func(string) string { return "" }
	}
	if env.Out == nil {
		env.Out = io.Discard
	}
	if env.Err == nil {
		env.Err = io.Discard
	}

	a := &app{env: env}
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(env.Out)
	cmd.SetErr(env.Err)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(env.Err, "error: %v\n", err)
	if isUsageError(err) {
		return ExitUsage
	}
	return ExitFailure
}

func isUsageError(err error) bool {
	var usage usageError
	if errors.As(err, &usage) {
		return true
	}
	if errors.Is(err, toolcache.ErrInvalidName) || errors.Is(err, toolcache.ErrInvalidVersion) || errors.Is(err, archive.ErrInvalidInput) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "toolcache",
		Short:         "Versioned, architecture-aware tool cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "配置文件路径（可被 TOOLCACHE_CONFIG 提供）")
	flags.StringVar(&a.opts.root, "root", "", "工具缓存根目录，覆盖配置与 RUNNER_TOOL_CACHE")
	flags.StringVar(&a.opts.arch, "arch", "", "覆盖架构: x64|arm64|any")
	flags.StringVar(&a.opts.platform, "platform", "", "覆盖平台: linux|macos|windows|any")

	cmd.AddCommand(a.newFindCmd())
	cmd.AddCommand(a.newListCmd())
	cmd.AddCommand(a.newPathCmd())
	cmd.AddCommand(a.newExtractCmd())
	cmd.AddCommand(a.newInstallCmd())
	cmd.AddCommand(a.newServeCmd())
	cmd.AddCommand(a.newCheckConfigCmd())
	cmd.AddCommand(a.newVersionCmd())

	return cmd
}

// exactArgs 与 cobra.ExactArgs 相同，但返回 usageError。
func exactArgs(n int, names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("expected %d argument(s) %s, got %d", n, strings.Join(names, " "), len(args))
		}
		return nil
	}
}

// resolvedConfigPath 按 --config > TOOLCACHE_CONFIG 的顺序选择配置文件。
func (a *app) resolvedConfigPath() string {
	return config.ResolvePath(a.opts.configPath, a.env.Getenv)
}

// loadConfig 加载配置并初始化日志，重复调用复用首次结果。
func (a *app) loadConfig() (*config.Config, *logrus.Logger, error) {
	if a.cfg != nil {
		return a.cfg, a.logger, nil
	}
	if err := a.validateGlobalFlags(); err != nil {
		return nil, nil, err
	}

	path := a.resolvedConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := logging.InitLogger(cfg.Global, a.env.Err)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return cfg, logger, nil
}

// openStore 合并配置与全局标志后构建 Store。
func (a *app) openStore() (*toolcache.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, logger, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	opts := cfg.StoreOptions(a.storeEnv())
	opts.Logger = logger
	if len(a.env.Candidates) > 0 {
		opts.Candidates = a.env.Candidates
	}
	if a.opts.root != "" {
		root := a.opts.root
		opts.Root = &root
	}
	if a.opts.arch != "" {
		arch := platform.ParseArch(a.opts.arch)
		opts.Arch = &arch
	}
	if a.opts.platform != "" {
		p := platform.ParsePlatform(a.opts.platform)
		opts.Platform = &p
	}

	store, err := toolcache.NewStore(opts)
	if err != nil {
		return nil, fmt.Errorf("初始化工具缓存失败: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"action":   "open_store",
		"root":     store.Root(),
		"platform": store.Platform().String(),
		"arch":     store.Arch().String(),
	}).Debug("tool cache ready")
	a.store = store
	return store, nil
}

func (a *app) storeEnv() toolcache.Env {
	env := toolcache.Env{}
	for key, value := range a.env.Environ {
		env[key] = value
	}
	if env.Get(toolcache.EnvToolCache) == "" {
		if root := a.env.Getenv(toolcache.EnvToolCache); root != "" {
			env[toolcache.EnvToolCache] = root
		}
	}
	return env
}

func (a *app) validateGlobalFlags() error {
	if a.opts.arch != "" && !knownArch(a.opts.arch) {
		return usagef("unsupported --arch %q (x64|arm64|any)", a.opts.arch)
	}
	if a.opts.platform != "" && !knownPlatform(a.opts.platform) {
		return usagef("unsupported --platform %q (linux|macos|windows|any)", a.opts.platform)
	}
	return nil
}

func knownArch(raw string) bool {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return normalized == "any" || platform.ParseArch(normalized) != platform.ArchAny
}

func knownPlatform(raw string) bool {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return normalized == "any" || platform.ParsePlatform(normalized) != platform.Any
}
