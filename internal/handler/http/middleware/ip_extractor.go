// Package middleware holds request-level guards that sit in front of the
// /v1 handlers.
package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"news-aggregator/pkg/config"
)

// IPExtractor determines the client address used as a rate-limit key.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor trusts only the TCP peer address.
type RemoteAddrExtractor struct{}

func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// TrustedProxyExtractor reads X-Forwarded-For, but only when the peer is one
// of the configured proxies. Otherwise it falls back to RemoteAddr.
type TrustedProxyExtractor struct {
	trusted []*net.IPNet
}

// NewTrustedProxyExtractor parses CIDRs (bare IPs are accepted as /32 or /128).
func NewTrustedProxyExtractor(cidrs []string) (*TrustedProxyExtractor, error) {
	e := &TrustedProxyExtractor{}
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			if ip := net.ParseIP(c); ip != nil && ip.To4() != nil {
				c += "/32"
			} else {
				c += "/128"
			}
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		e.trusted = append(e.trusted, n)
	}
	return e, nil
}

// ExtractorFromEnv returns a TrustedProxyExtractor when TRUSTED_PROXIES is
// set and a RemoteAddrExtractor otherwise.
func ExtractorFromEnv() (IPExtractor, error) {
	cidrs := config.GetEnvStringList("TRUSTED_PROXIES", nil)
	if len(cidrs) == 0 {
		return RemoteAddrExtractor{}, nil
	}
	return NewTrustedProxyExtractor(cidrs)
}

func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	peer, err := extractIPFromAddr(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if !e.isTrusted(net.ParseIP(peer)) {
		return peer, nil
	}
	// Walk right to left and return the first hop that is not a proxy.
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			break
		}
		if !e.isTrusted(ip) {
			return ip.String(), nil
		}
	}
	return peer, nil
}

func (e *TrustedProxyExtractor) isTrusted(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range e.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func extractIPFromAddr(addr string) (string, error) {
	if addr == "" {
		return "", errors.New("empty remote address")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("invalid remote address %q", addr)
	}
	return ip.String(), nil
}
