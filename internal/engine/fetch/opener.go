package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vfaronov/httpheader"
	"golang.org/x/net/proxy"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/utils"
)

// Opener opens the source stream of a fetch. Each call is one network
// operation.
type Opener interface {
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, locator string) (io.ReadCloser, error)

func (f OpenerFunc) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	return f(ctx, locator)
}

// HTTPOpener issues plain GET requests.
type HTTPOpener struct {
	Client  *http.Client
	Runtime *types.RuntimeConfig
	Headers map[string]string // Extra request headers
}

// NewHTTPOpener builds an opener whose transport honours the proxy and TLS
// settings of runtime.
func NewHTTPOpener(runtime *types.RuntimeConfig) *HTTPOpener {
	direct := &net.Dialer{
		Timeout: types.DialTimeout,
	}
	transport := &http.Transport{
		TLSHandshakeTimeout:   types.DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: types.DefaultResponseHeaderTimeout,
		DialContext:           direct.DialContext,
	}

	// Configure proxy if runtime config is provided
	if runtime != nil && runtime.ProxyURL != "" {
		parsedURL, err := url.Parse(runtime.ProxyURL)
		if err != nil {
			utils.Debug("Fetch: Invalid proxy URL %s: %v", runtime.ProxyURL, err)
			transport.Proxy = http.ProxyFromEnvironment
		} else if strings.HasPrefix(parsedURL.Scheme, "socks5") {
			utils.Debug("Fetch: Using SOCKS5 proxy: %s", runtime.ProxyURL)
			dialer, dialErr := proxy.SOCKS5("tcp", parsedURL.Host, nil, direct)
			if dialErr != nil {
				utils.Debug("Fetch: Failed to create SOCKS5 dialer: %v", dialErr)
				transport.Proxy = http.ProxyFromEnvironment
			} else if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		} else {
			transport.Proxy = http.ProxyURL(parsedURL)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	if runtime != nil && runtime.SkipTLSVerification {
		utils.Debug("Fetch: TLS verification disabled")
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &HTTPOpener{
		Client:  &http.Client{Timeout: 0, Transport: transport},
		Runtime: runtime,
	}
}

// Open sends the request and returns the response body once the status is 2xx.
// Getting that far (dial, TLS, response headers) is bounded by the runtime's
// open timeout; reading the body afterwards is not.
func (o *HTTPOpener) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	budget := time.AfterFunc(o.Runtime.GetOpenTimeout(), cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		budget.Stop()
		cancel()
		return nil, err
	}

	for key, val := range o.Headers {
		req.Header.Set(key, val)
	}
	if ua := o.Runtime.CustomUserAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		httpheader.SetUserAgent(req.Header, []httpheader.Product{
			{Name: types.UserAgentProduct, Version: types.Version},
		})
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if !budget.Stop() {
		// Timer already fired: the request context is cancelled
		if err == nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("open timed out after %s: %w", o.Runtime.GetOpenTimeout(), context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*types.KB))
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnClose releases the request context together with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
