package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliOutput 保存一次 run 调用期间写入 stdout/stderr 的内容。
type cliOutput struct {
	out bytes.Buffer
	err bytes.Buffer
}

// captureOutput 在测试期间把 stdOut/stdErr 替换为内存缓冲区。
func captureOutput(t *testing.T) *cliOutput {
	t.Helper()
	captured := &cliOutput{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = &captured.out, &captured.err
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
	return captured
}

// configFixture 返回 internal/config/testdata 下的配置样例；go test 以包目录为工作目录。
func configFixture(name string) string {
	return filepath.Join("internal", "config", "testdata", name)
}

// writeConfigFile 在临时目录写入 TOML 配置并返回路径。
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
