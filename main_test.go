package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCheckConfigSuccess(t *testing.T) {
	output := captureOutput(t)
	code := run([]string{"--config", configFixture("valid.toml"), "check-config"})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d: %s", code, output.err.String())
	}
	if strings.TrimSpace(output.out.String()) != "ok" {
		t.Fatalf("check-config 应输出 ok，得到 %q", output.out.String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	output := captureOutput(t)
	code := run([]string{"--config", configFixture("missing.toml"), "check-config"})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
	if !strings.Contains(output.err.String(), "加载配置失败") {
		t.Fatalf("stderr 应说明配置加载失败: %s", output.err.String())
	}
}

func TestRunConfigFromEnv(t *testing.T) {
	t.Setenv("TOOLCACHE_CONFIG", configFixture("invalid.toml"))
	output := captureOutput(t)
	if code := run([]string{"check-config"}); code != 1 {
		t.Fatalf("TOOLCACHE_CONFIG 指向的无效配置应返回 1，得到 %d", code)
	}
	if !strings.Contains(output.err.String(), "RetryCount") {
		t.Fatalf("stderr 应指出无效字段: %s", output.err.String())
	}

	captureOutput(t)
	if code := run([]string{"--config", configFixture("valid.toml"), "check-config"}); code != 0 {
		t.Fatalf("--config 应高于环境变量，得到 %d", code)
	}
}

func TestRunFindUsesRunnerToolCache(t *testing.T) {
	root := t.TempDir()
	toolDir := filepath.Join(root, "go", "1.21.0", "x64")
	if err := os.MkdirAll(toolDir, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	t.Setenv("TOOLCACHE_CONFIG", "")
	t.Setenv("RUNNER_TOOL_CACHE", root)

	output := captureOutput(t)
	code := run([]string{"--platform", "linux", "find", "go", "1.21.x"})
	if code != 0 {
		t.Fatalf("期望命中，得到 %d: %s", code, output.err.String())
	}
	if strings.TrimSpace(output.out.String()) != toolDir {
		t.Fatalf("输出路径不符: %q", output.out.String())
	}
}

func TestRunUsageExitCode(t *testing.T) {
	output := captureOutput(t)
	if code := run([]string{"find", "go"}); code != 2 {
		t.Fatalf("缺少参数应返回 2，得到 %d", code)
	}
	if !strings.Contains(output.err.String(), "error:") {
		t.Fatalf("stderr 应包含错误信息")
	}
}

func TestRunVersionOutput(t *testing.T) {
	output := captureOutput(t)
	code := run([]string{"version"})
	if code != 0 {
		t.Fatalf("version 应成功退出，得到 %d", code)
	}
	if !strings.Contains(output.out.String(), "toolcache") {
		t.Fatalf("version 输出应包含 toolcache 标识")
	}
}
