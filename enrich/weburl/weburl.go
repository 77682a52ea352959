// Package weburl validates and normalizes user-supplied company website URLs.
// It also carries the private-IP checks used by the fetcher to optionally block
// requests into internal networks.
package weburl

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Guard errors. The HTTP layer maps these to user-visible 400 responses, so
// they must stay distinguishable.
var (
	ErrWebsiteRequired   = errors.New("website is required")
	ErrInvalidURL        = errors.New("invalid website URL")
	ErrUnsupportedScheme = errors.New("only http/https URLs are supported")
)

// Pre-compiled CIDR networks for private/reserved IP ranges.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// ParseWebsite validates a raw website string and returns the parsed URL.
// Only absolute http/https URLs with a host pass the guard. A scheme-relative
// URL ("//example.com") parses but is rejected as an unsupported scheme; a
// string with neither scheme nor host is rejected as invalid outright.
func ParseWebsite(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrWebsiteRequired
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsed.Scheme == "" && parsed.Host == "" {
		return nil, ErrInvalidURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}

	if parsed.Hostname() == "" {
		return nil, ErrInvalidURL
	}

	return parsed, nil
}

// IsPrivateHost reports whether the URL points at localhost, a local domain,
// or a literal private IP. DNS results are checked separately by the fetcher's
// dialer to cover rebinding.
func IsPrivateHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return true
	}

	if ip := net.ParseIP(host); ip != nil {
		return IsPrivateIP(ip)
	}

	return false
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}

// DomainKeyword derives the short brand token from a URL host: the host with
// any leading "www." stripped, truncated to the first label before the first
// dot. "https://www.acme-pay.io/about" yields "acme-pay".
func DomainKeyword(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}

	return host
}

// Slug creates a subject-safe token from a URL for event subjects.
// The slug is derived from the domain and path, lowercased and reduced
// to [a-z0-9-].
func Slug(u *url.URL) string {
	host := u.Hostname()
	path := strings.Trim(u.Path, "/")

	slug := strings.ReplaceAll(host, ".", "-")
	if path != "" {
		slug = slug + "-" + strings.ReplaceAll(path, "/", "-")
	}

	slug = strings.ToLower(slug)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > 80 {
		slug = slug[:80]
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}
