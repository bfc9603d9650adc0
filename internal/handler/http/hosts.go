package http

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// HostResolver renders fully qualified short URLs from the inbound request.
// The host is taken from request headers so one deployment serves several
// domains without hardcoding. Hosts outside the allow-list are logged but
// never rejected: host spoofing is a known accepted limitation.
type HostResolver struct {
	defaultDomain string
	allowed       map[string]struct{}
	log           *zap.Logger
}

// NewHostResolver creates a resolver with an allow-list of recognized hosts.
func NewHostResolver(defaultDomain string, allowedDomains []string, log *zap.Logger) *HostResolver {
	allowed := make(map[string]struct{}, len(allowedDomains)+1)
	for _, d := range allowedDomains {
		allowed[normalizeHost(d)] = struct{}{}
	}
	if defaultDomain != "" {
		allowed[normalizeHost(defaultDomain)] = struct{}{}
	}

	return &HostResolver{
		defaultDomain: defaultDomain,
		allowed:       allowed,
		log:           log,
	}
}

// ShortURL builds scheme://host/code for the requesting host.
func (hr *HostResolver) ShortURL(r *http.Request, code string) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		host = hr.defaultDomain
	}

	if _, ok := hr.allowed[normalizeHost(host)]; !ok && len(hr.allowed) > 0 {
		hr.log.Warn("short url requested for unrecognized host", zap.String("host", host))
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	return scheme + "://" + host + "/" + code
}

func normalizeHost(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(strings.TrimSuffix(host, "/"))
}
