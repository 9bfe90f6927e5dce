package config

import (
	"github.com/any-hub/toolcache/pkg/download"
	"github.com/any-hub/toolcache/pkg/platform"
	"github.com/any-hub/toolcache/pkg/release"
	"github.com/any-hub/toolcache/pkg/toolcache"
)

// StoreOptions 把配置映射为 toolcache.Options；未配置的项保持 nil，由 Store 自行决定默认值。
func (c *Config) StoreOptions(env toolcache.Env) toolcache.Options {
	g := c.Global
	opts := toolcache.Options{
		Client: download.NewClient(g.DownloadTimeout.DurationValue()),
		Env:    env,
	}
	if g.ToolCache != "" {
		root := g.ToolCache
		opts.Root = &root
	}
	if g.Arch != "" {
		arch := platform.ParseArch(g.Arch)
		opts.Arch = &arch
	}
	if g.Platform != "" {
		p := platform.ParsePlatform(g.Platform)
		opts.Platform = &p
	}
	retries := g.RetryCount
	opts.RetryCount = &retries
	backoff := g.RetryBackoff.DurationValue()
	opts.Backoff = &backoff
	userAgent := g.UserAgent
	opts.UserAgent = &userAgent
	return opts
}

// ReleaseLocator 根据 Release 配置构建 GitHub 发布元数据客户端。
func (c *Config) ReleaseLocator() release.GitHub {
	return release.GitHub{
		BaseURL: c.Release.GitHubAPI,
		Client:  download.NewClient(c.Global.DownloadTimeout.DurationValue()),
		Token:   c.Release.GitHubToken,
	}
}
