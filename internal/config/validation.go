package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedArches = map[string]struct{}{
	"":        {},
	"x64":     {},
	"amd64":   {},
	"x86_64":  {},
	"arm64":   {},
	"aarch64": {},
	"any":     {},
}

var supportedPlatforms = map[string]struct{}{
	"":        {},
	"linux":   {},
	"macos":   {},
	"darwin":  {},
	"windows": {},
	"any":     {},
}

// Validate 针对语义级别做进一步校验，防止非法配置进入运行期。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError(globalField("ListenPort"), "必须在 1-65535")
	}
	if g.RetryCount < 0 {
		return newFieldError(globalField("RetryCount"), "不能为负数")
	}
	if g.RetryBackoff.DurationValue() <= 0 {
		return newFieldError(globalField("RetryBackoff"), "必须大于 0")
	}
	if g.DownloadTimeout.DurationValue() <= 0 {
		return newFieldError(globalField("DownloadTimeout"), "必须大于 0")
	}
	if _, ok := supportedArches[strings.ToLower(strings.TrimSpace(g.Arch))]; !ok {
		return newFieldError(globalField("Arch"), "仅支持 x64|arm64|any")
	}
	if _, ok := supportedPlatforms[strings.ToLower(strings.TrimSpace(g.Platform))]; !ok {
		return newFieldError(globalField("Platform"), "仅支持 linux|macos|windows|any")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError(globalField("LogLevel"), fmt.Sprintf("无法识别的日志级别: %s", g.LogLevel))
		}
	}
	if g.LogMaxSize < 0 {
		return newFieldError(globalField("LogMaxSize"), "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError(globalField("LogMaxBackups"), "不能为负数")
	}

	if err := validateEndpoint(c.Release.GitHubAPI); err != nil {
		return fmt.Errorf("%s: %w", releaseField("GitHubAPI"), err)
	}
	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("缺少接口地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("接口地址缺少 Host: %s", raw)
	}
	return nil
}
