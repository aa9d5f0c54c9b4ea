package guard

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// OriginClass is the network category of a connecting address.
type OriginClass int

const (
	OriginPublic OriginClass = iota
	OriginLoopback
	OriginPrivate
)

func (c OriginClass) String() string {
	switch c {
	case OriginLoopback:
		return "loopback"
	case OriginPrivate:
		return "private"
	default:
		return "public"
	}
}

// Origin is the resolved source address of an inbound request.
type Origin struct {
	Raw   string
	Addr  netip.Addr
	Class OriginClass
}

// Classify parses raw (with or without port) and classifies it. Link-local
// addresses count as private; anything unparseable is public.
func Classify(raw string) Origin {
	o := Origin{Raw: raw, Class: OriginPublic}
	addr, err := netip.ParseAddr(ParseHostNoPort(strings.TrimSpace(raw)))
	if err != nil {
		return o
	}
	addr = addr.Unmap()
	o.Addr = addr
	switch {
	case addr.IsLoopback():
		o.Class = OriginLoopback
	case addr.IsPrivate(), addr.IsLinkLocalUnicast():
		o.Class = OriginPrivate
	}
	return o
}

// Local reports whether the origin may reach the API at all.
func (o Origin) Local() bool {
	return o.Class == OriginLoopback || o.Class == OriginPrivate
}

// ParseHostNoPort returns the host part (no port) from strings like "ip:port", "[v6]:port", or "ip".
func ParseHostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// FirstForwardedFor returns the first IP from X-Forwarded-For (left-most), trimmed.
func FirstForwardedFor(xff string) string {
	xff = strings.TrimSpace(xff)
	if xff == "" {
		return ""
	}
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

// ClientAddr resolves the address the guard classifies.
// Proxy headers are only honored when trustProxy is set; otherwise a client
// could claim a private origin by sending X-Forwarded-For.
func ClientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if v := FirstForwardedFor(r.Header.Get("X-Forwarded-For")); v != "" {
			return ParseHostNoPort(v)
		}
		if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
			return ParseHostNoPort(v)
		}
	}
	return ParseHostNoPort(r.RemoteAddr)
}
