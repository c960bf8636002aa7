// ABOUTME: Bounded HTTP GET used to read article pages for title extraction
// ABOUTME: Blocks private address ranges and caps the body size

package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// MaxResponseSize caps the bytes read from one page.
const MaxResponseSize = 4 * 1024 * 1024

// UserAgent is sent with every request.
const UserAgent = "wikifaves/1.0 (title resolver)"

// Result contains the response from an HTTP fetch operation.
type Result struct {
	Body        []byte
	ContentType string
}

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// isPrivateIP checks if an IP address is in a private range (excluding loopback for tests).
func isPrivateIP(ip net.IP) bool {
	// Allow loopback addresses (localhost) for tests
	if ip.IsLoopback() {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// Fetch retrieves urlStr. Any non-200 status is an error.
func Fetch(ctx context.Context, urlStr string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}

	// SSRF protection: block private IP ranges
	if ips, err := net.DefaultResolver.LookupIP(ctx, "ip", parsedURL.Hostname()); err == nil {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return nil, fmt.Errorf("access to private IP ranges is not allowed")
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response too large (exceeds %d bytes)", MaxResponseSize)
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
