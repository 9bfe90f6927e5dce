package download

import (
	"net"
	"net/http"
	"time"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewClient 返回使用共享 transport 的 http.Client。headerTimeout>0 时只限制等待响应头的时间，
// 不设 Client.Timeout：正文读取可能持续很久，由调用方的 context 控制。
func NewClient(headerTimeout time.Duration) *http.Client {
	transport := defaultTransport.Clone()
	if headerTimeout > 0 {
		transport.ResponseHeaderTimeout = headerTimeout
	}
	return &http.Client{Transport: transport}
}

// DefaultClient 是 Store 与 Downloader 在未注入客户端时使用的实例。
func DefaultClient() *http.Client {
	return NewClient(0)
}
