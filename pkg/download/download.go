package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetries 与 runner 工具缓存的默认重试次数一致。
	DefaultRetries = 10
	// DefaultBackoff 为固定退避间隔，不做指数增长。
	DefaultBackoff = 2 * time.Second
	// DefaultUserAgent 是所有下载请求携带的 User-Agent。
	DefaultUserAgent = "ghactions"
)

// Asset 描述一个可下载的发布产物，由 release 元数据提供方给出。
type Asset struct {
	Name        string `json:"name" yaml:"name"`
	URL         string `json:"url" yaml:"url"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Size        int64  `json:"size" yaml:"size"`
}

// Options 控制 Downloader 的行为，零值字段在 New 中填充默认值。
type Options struct {
	Client    *http.Client
	Retries   int
	Backoff   time.Duration
	UserAgent string
	Logger    logrus.FieldLogger
}

// Downloader 以有限次数重试的方式把 Asset 流式写入目标文件。
// 同一个实例可被并发使用，自身不持有可变状态。
type Downloader struct {
	client    *http.Client
	retries   int
	backoff   time.Duration
	userAgent string
	logger    logrus.FieldLogger
	sleep     func(context.Context, time.Duration) error
}

// New 构建 Downloader。Retries 为负数时视为 0（不会发起任何请求）。
func New(opts Options) *Downloader {
	d := &Downloader{
		client:    opts.Client,
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
		sleep:     sleepContext,
	}
	if d.client == nil {
		d.client = DefaultClient()
	}
	if d.retries < 0 {
		d.retries = 0
	}
	if d.backoff <= 0 {
		d.backoff = DefaultBackoff
	}
	if d.userAgent == "" {
		d.userAgent = DefaultUserAgent
	}
	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}
	return d
}

// Retries 返回单次下载允许的最大尝试次数。
func (d *Downloader) Retries() int {
	return d.retries
}

// Download 创建（或截断）dest，然后最多尝试 Retries 次：
// 5xx 固定退避后重试；4xx 与传输错误立即失败；其余状态码视为成功并写入正文。
// 失败的尝试不会向 dest 写入任何字节。
func (d *Downloader) Download(ctx context.Context, asset Asset, dest string) error {
	if asset.URL == "" {
		return errors.New("asset url required")
	}

	fields := logrus.Fields{"action": "download", "url": asset.URL, "dest": dest}
	d.logger.WithFields(fields).Debug("download_start")

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create download destination: %w", err)
	}
	defer file.Close()

	for attempt := 1; attempt <= d.retries; attempt++ {
		resp, outcome, err := d.attempt(ctx, asset)
		switch outcome {
		case Success:
			written, copyErr := copyWithContext(ctx, file, resp.Body)
			resp.Body.Close()
			if copyErr != nil {
				return fmt.Errorf("write %s: %w", dest, copyErr)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", dest, err)
			}
			if asset.Size > 0 && written != asset.Size {
				d.logger.WithFields(fields).WithFields(logrus.Fields{
					"expected_bytes": asset.Size,
					"written_bytes":  written,
				}).Warn("download_size_mismatch")
			}
			d.logger.WithFields(fields).WithField("bytes", written).Debug("download_complete")
			return nil
		case RetryableServerError:
			status := resp.StatusCode
			drainAndClose(resp)
			d.logger.WithFields(fields).WithFields(logrus.Fields{
				"status":    status,
				"attempt":   attempt,
				"remaining": d.retries - attempt,
			}).Warn("download_server_error")
			if attempt < d.retries {
				if err := d.sleep(ctx, d.backoff); err != nil {
					return fmt.Errorf("download %s: %w", asset.URL, err)
				}
			}
		case TerminalClientError:
			status := resp.StatusCode
			drainAndClose(resp)
			return &StatusError{URL: asset.URL, StatusCode: status}
		default:
			return fmt.Errorf("download %s: %w", asset.URL, err)
		}
	}

	d.logger.WithFields(fields).WithField("attempts", d.retries).Error("download_failed")
	return &DownloadError{URL: asset.URL, Attempts: d.retries}
}

func (d *Downloader) attempt(ctx context.Context, asset Asset) (*http.Response, Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return nil, TransportError, err
	}
	if asset.ContentType != "" {
		req.Header.Set("Accept", asset.ContentType)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, TransportError, err
	}
	return resp, Classify(resp.StatusCode), nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// copyWithContext 以整块追加的方式写入，取消时文件可能不完整但不会交错。
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
