package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvConfigPath 在未传入 --config 时提供配置文件路径。
const EnvConfigPath = "TOOLCACHE_CONFIG"

// ResolvePath 按 --config > TOOLCACHE_CONFIG 的顺序选择配置文件，都为空时返回空字符串。
func ResolvePath(flagValue string, getenv func(string) string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(EnvConfigPath))
}

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
// path 为空时不读取文件，仅返回默认配置。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyReleaseDefaults(&cfg.Release)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Global.ToolCache != "" {
		absRoot, err := filepath.Abs(cfg.Global.ToolCache)
		if err != nil {
			return nil, fmt.Errorf("无法解析工具缓存目录: %w", err)
		}
		cfg.Global.ToolCache = absRoot
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ToolCache", "")
	v.SetDefault("Arch", "")
	v.SetDefault("Platform", "")
	v.SetDefault("RetryCount", 10)
	v.SetDefault("RetryBackoff", "2s")
	v.SetDefault("DownloadTimeout", "60s")
	v.SetDefault("UserAgent", "ghactions")
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("GitHubAPI", "https://api.github.com")
	v.SetDefault("GitHubToken", "")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.RetryBackoff.DurationValue() == 0 {
		g.RetryBackoff = Duration(2 * time.Second)
	}
	if g.DownloadTimeout.DurationValue() == 0 {
		g.DownloadTimeout = Duration(time.Minute)
	}
	if strings.TrimSpace(g.UserAgent) == "" {
		g.UserAgent = "ghactions"
	}
	g.Arch = strings.ToLower(strings.TrimSpace(g.Arch))
	g.Platform = strings.ToLower(strings.TrimSpace(g.Platform))
}

func applyReleaseDefaults(r *ReleaseConfig) {
	r.GitHubAPI = strings.TrimRight(strings.TrimSpace(r.GitHubAPI), "/")
	if r.GitHubAPI == "" {
		r.GitHubAPI = "https://api.github.com"
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
