package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"CircuitEngine/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "CircuitEngine-notify/1.0"
)

// NewHTTPClient 通知推送用 HTTP 客户端：代理、超时、Bearer 鉴权、gzip 响应解压
func NewHTTPClient(cfg *config.NotifyConfig, logger *logrus.Logger) *http.Client {
	base := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			base.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", cfg.Proxy).Info("推送客户端已配置代理")
		}
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &notifyTransport{
			next:   base,
			token:  cfg.Token,
			logger: logger,
		},
	}
}

// notifyTransport 为每个推送请求补齐公共头，并透明解压 gzip 响应
type notifyTransport struct {
	next   http.RoundTripper
	token  string
	logger *logrus.Logger
}

func (t *notifyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTripper 不得修改调用方的请求
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	if t.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.logger.WithError(err).WithField("url", req.URL.Redacted()).Warn("gzip解压失败，返回原始响应")
		return resp, nil
	}
	resp.Body = &gzipBody{Reader: gz, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (g *gzipBody) Close() error {
	gzErr := g.Reader.Close()
	if err := g.raw.Close(); err != nil {
		return err
	}
	return gzErr
}
