package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360studio/prospect/enrich/weburl"
)

// Fetch defaults. The 15 second bound is the hard ceiling on how long a slow
// company website can hold up a request.
const (
	DefaultFetchTimeout   = 15 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (compatible; VC-Discovery/1.0)"
	DefaultMaxContentSize = 2 << 20 // 2 MB
)

// FetcherConfig configures the website fetcher.
type FetcherConfig struct {
	// Timeout bounds the wall-clock duration of one fetch, including
	// connect, TLS, and body read. Zero means DefaultFetchTimeout.
	Timeout time.Duration

	// UserAgent identifies the client to website origins.
	UserAgent string

	// MaxContentSize caps how many body bytes are read. Oversized pages are
	// truncated, not rejected. A partial page still yields metadata.
	MaxContentSize int64

	// RateLimitRPS throttles outbound fetches across requests. Zero disables
	// the limiter.
	RateLimitRPS float64

	// BlockPrivateHosts refuses fetches that resolve to localhost, local
	// domains, or private IP ranges. Off by default since plain-http company
	// sites are in scope.
	BlockPrivateHosts bool
}

// Fetcher retrieves company website markup. Its Fetch method never returns an
// error: every failure mode is folded into a FetchOutcome warning so the
// pipeline can continue with a metadata-only result.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// NewFetcher creates a website fetcher.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = DefaultMaxContentSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("too many redirects (max 5)")
		}
		if cfg.BlockPrivateHosts && weburl.IsPrivateHost(req.URL) {
			return fmt.Errorf("redirect to private host %s blocked", req.URL.Hostname())
		}
		return nil
	}

	if cfg.BlockPrivateHosts {
		transport.DialContext = safeDialContext
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	return &Fetcher{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		userAgent:      cfg.UserAgent,
		maxContentSize: cfg.MaxContentSize,
		timeout:        cfg.Timeout,
		limiter:        limiter,
		logger:         logger,
	}
}

// safeDialContext resolves DNS and validates every returned IP before
// connecting, so a hostname cannot rebind to a private address after the
// URL-level check.
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("DNS lookup failed: %w", err)
	}

	for _, ipAddr := range ips {
		if weburl.IsPrivateIP(ipAddr.IP) {
			return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
		}
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	for _, ipAddr := range ips {
		conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
		if err == nil {
			return conn, nil
		}
	}

	return nil, fmt.Errorf("failed to connect to any resolved IP")
}

// Fetch retrieves the page at u. It never fails the pipeline: any error or
// non-2xx status is converted into a warning on the outcome.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) FetchOutcome {
	html, status, err := f.fetch(ctx, u)
	if err != nil {
		f.logger.Warn("Website fetch failed", "url", u.String(), "error", err)
		return FetchOutcome{Warning: fmt.Sprintf("Website content fetch failed: %s.", fetchErrorMessage(err, f.timeout))}
	}
	if status/100 != 2 {
		f.logger.Warn("Website fetch returned non-2xx status", "url", u.String(), "status", status)
		return FetchOutcome{Warning: fmt.Sprintf("Website content fetch failed with status %d.", status)}
	}
	return FetchOutcome{HTML: html}
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL) (body string, status int, err error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	// Read at most maxContentSize bytes; anything beyond is dropped.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxContentSize))
	if err != nil {
		return "", 0, fmt.Errorf("read body: %w", err)
	}

	return string(data), resp.StatusCode, nil
}

// fetchErrorMessage turns transport errors into the human-readable fragment
// embedded in the fetch warning.
func fetchErrorMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", timeout)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return fmt.Sprintf("timed out after %s", timeout)
		}
		return urlErr.Err.Error()
	}

	return err.Error()
}
