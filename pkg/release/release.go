// Package release 把 (repo, tag, asset) 解析为可下载的 download.Asset。
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/any-hub/toolcache/pkg/download"
)

// DefaultBaseURL 是 GitHub REST API 的默认入口。
const DefaultBaseURL = "https://api.github.com"

var (
	// ErrReleaseNotFound 表示仓库或 tag 不存在。
	ErrReleaseNotFound = errors.New("release not found")
	// ErrAssetNotFound 表示 release 中没有与名称或模式匹配的产物。
	ErrAssetNotFound = errors.New("release asset not found")
	// ErrInvalidRepo 表示仓库名不是 owner/name 形式。
	ErrInvalidRepo = errors.New("repository must be owner/name")
)

// Locator 是发布元数据提供方。
type Locator interface {
	Locate(ctx context.Context, repo, tag, assetName string) (download.Asset, error)
}

// GitHub 通过 releases API 查找产物。零值可用，默认访问 api.github.com。
type GitHub struct {
	BaseURL string
	Client  *http.Client
	Token   string
}

type releasePayload struct {
	TagName string         `json:"tag_name"`
	Assets  []assetPayload `json:"assets"`
}

type assetPayload struct {
	Name               string `json:"name"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Locate 获取 tag 对应的 release（tag 为空或 latest 时取最新），
// 先按名称精确匹配，再按 path.Match 模式匹配 assetName。
func (g GitHub) Locate(ctx context.Context, repo, tag, assetName string) (download.Asset, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return download.Asset{}, fmt.Errorf("%w: %q", ErrInvalidRepo, repo)
	}

	rel, err := g.fetch(ctx, g.releaseURL(owner, name, tag))
	if err != nil {
		return download.Asset{}, err
	}

	if asset, ok := selectAsset(rel.Assets, assetName); ok {
		return download.Asset{
			Name:        asset.Name,
			URL:         asset.BrowserDownloadURL,
			ContentType: asset.ContentType,
			Size:        asset.Size,
		}, nil
	}
	return download.Asset{}, fmt.Errorf("%w: %s in %s@%s", ErrAssetNotFound, assetName, repo, rel.TagName)
}

func (g GitHub) releaseURL(owner, name, tag string) string {
	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	prefix := fmt.Sprintf("%s/repos/%s/%s/releases", base, url.PathEscape(owner), url.PathEscape(name))
	if tag == "" || tag == "latest" {
		return prefix + "/latest"
	}
	return prefix + "/tags/" + url.PathEscape(tag)
}

func (g GitHub) fetch(ctx context.Context, target string) (*releasePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", download.DefaultUserAgent)
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	client := g.Client
	if client == nil {
		client = download.DefaultClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrReleaseNotFound, target)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch release: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &payload, nil
}

func selectAsset(assets []assetPayload, wanted string) (assetPayload, bool) {
	for _, asset := range assets {
		if asset.Name == wanted {
			return asset, true
		}
	}
	for _, asset := range assets {
		if matched, err := path.Match(wanted, asset.Name); err == nil && matched {
			return asset, true
		}
	}
	return assetPayload{}, false
}
