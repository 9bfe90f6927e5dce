package download

import (
	"errors"
	"fmt"
)

// Outcome 是单次下载尝试的分类结果。
type Outcome int

const (
	Success Outcome = iota
	RetryableServerError
	TerminalClientError
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RetryableServerError:
		return "retryable_server_error"
	case TerminalClientError:
		return "terminal_client_error"
	default:
		return "transport_error"
	}
}

// Classify 把最终响应状态码映射为 Outcome：5xx 可重试，4xx 终止，其余成功。
func Classify(status int) Outcome {
	switch {
	case status >= 500:
		return RetryableServerError
	case status >= 400:
		return TerminalClientError
	default:
		return Success
	}
}

// ErrDownload 标记下载重试预算耗尽或被上游拒绝。
var ErrDownload = errors.New("download failed")

// DownloadError 表示所有尝试均遇到服务端错误。
type DownloadError struct {
	URL      string
	Attempts int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download asset %s after %d attempts", e.URL, e.Attempts)
}

func (e *DownloadError) Unwrap() error {
	return ErrDownload
}

// StatusError 表示上游返回了不可重试的 4xx。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download asset %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrDownload
}
