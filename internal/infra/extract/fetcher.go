package extract

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/yanqian/doc-summarizer/internal/infra/resilience/circuitbreaker"
)

var (
	ErrInvalidURL        = errors.New("invalid url")
	ErrPrivateIP         = errors.New("url resolves to a private address")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("fetch timed out")
	ErrReadabilityFailed = errors.New("readability extraction failed")
)

// StatusError reports a non-200 response from the fetched site.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// IsSiteFailure reports whether err says the remote site is unhealthy. Bad input from the
// caller (4xx pages, oversized bodies, redirect loops, cancellation) does not count.
func IsSiteFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError
	}
	for _, callerErr := range []error{ErrInvalidURL, ErrPrivateIP, ErrTooManyRedirects, ErrBodyTooLarge, ErrReadabilityFailed} {
		if errors.Is(err, callerErr) {
			return false
		}
	}
	return true
}

// BreakerConfig makes base count only site failures against the fetch breaker.
func BreakerConfig(base circuitbreaker.Config) circuitbreaker.Config {
	base.IsSuccessful = func(err error) bool { return !IsSiteFailure(err) }
	return base
}

// FetchConfig controls URL fetching limits and the SSRF guard.
type FetchConfig struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
	UserAgent      string
}

// DefaultFetchConfig returns conservative fetch limits.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 << 20,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "DocSummarizerBot/1.0",
	}
}

// URLFetcher downloads a page and extracts its article text.
type URLFetcher struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	cfg     FetchConfig
	lookup  func(host string) ([]net.IP, error)
	logger  *slog.Logger
}

// NewURLFetcher creates a fetcher guarded by breaker.
func NewURLFetcher(cfg FetchConfig, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *URLFetcher {
	f := &URLFetcher{
		breaker: breaker,
		cfg:     cfg,
		lookup:  net.LookupIP,
		logger:  logger.With("component", "extract.fetcher"),
	}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := f.validateURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch validates rawURL, downloads it through the circuit breaker and returns readable text.
func (f *URLFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.validateURL(rawURL); err != nil {
		return "", err
	}
	if f.breaker == nil {
		return f.fetch(ctx, rawURL)
	}
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetch(ctx, rawURL)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (f *URLFetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return string(body), nil
	}

	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent, nil
	}

	f.logger.Debug("readability found no article, using page text", "url", rawURL, "error", err)
	text, qErr := readHTML(bytes.NewReader(body))
	if qErr != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, qErr)
	}
	return text, nil
}

// validateURL allows only http(s) URLs and, when configured, rejects hosts that resolve
// to loopback, private or link-local addresses.
func (f *URLFetcher) validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !f.cfg.DenyPrivateIPs {
		return nil
	}

	ips, err := f.lookup(hostname)
	if err != nil {
		return fmt.Errorf("%w: dns lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, hostname, ip)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
