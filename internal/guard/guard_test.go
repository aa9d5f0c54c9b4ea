package guard

import (
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/printshare/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want OriginClass
	}{
		{"127.0.0.1", OriginLoopback},
		{"127.0.0.1:53211", OriginLoopback},
		{"::1", OriginLoopback},
		{"[::1]:8080", OriginLoopback},
		{"192.168.1.20", OriginPrivate},
		{"10.4.0.2:1234", OriginPrivate},
		{"172.16.5.5", OriginPrivate},
		{"169.254.10.1", OriginPrivate},
		{"fe80::1%eth0", OriginPrivate},
		{"fd12:3456::1", OriginPrivate},
		{"::ffff:192.168.1.5", OriginPrivate},
		{"8.8.8.8", OriginPublic},
		{"203.0.113.9:443", OriginPublic},
		{"2001:4860::8888", OriginPublic},
		{"", OriginPublic},
		{"not-an-ip", OriginPublic},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Classify(tt.raw).Class; got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseBearer(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBearer(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuthorize(t *testing.T) {
	const token = "s3cret-token"

	tests := []struct {
		name   string
		origin string
		header string
		want   domain.Kind
	}{
		{"loopback with token", "127.0.0.1", "Bearer " + token, ""},
		{"lan with token", "192.168.1.20", "Bearer " + token, ""},
		{"link-local with token", "169.254.1.1", "Bearer " + token, ""},
		{"public with token", "8.8.8.8", "Bearer " + token, domain.KindForbiddenOrigin},
		{"public without token", "8.8.8.8", "", domain.KindForbiddenOrigin},
		{"lan without header", "192.168.1.20", "", domain.KindUnauthorized},
		{"lan wrong token", "192.168.1.20", "Bearer wrong", domain.KindUnauthorized},
		{"lan token prefix", "192.168.1.20", "Bearer s3cret", domain.KindUnauthorized},
		{"lan wrong scheme", "192.168.1.20", "Token " + token, domain.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(Classify(tt.origin), tt.header, token)
			if tt.want == "" {
				if !d.Allowed {
					t.Fatalf("expected allow, got deny %s: %s", d.Reason, d.Detail)
				}
				if d.Err() != nil {
					t.Errorf("Err() = %v, want nil", d.Err())
				}
				return
			}
			if d.Allowed {
				t.Fatalf("expected deny %s, got allow", tt.want)
			}
			if d.Reason != tt.want {
				t.Errorf("Reason = %s, want %s", d.Reason, tt.want)
			}
			if got := domain.KindOf(d.Err()); got != tt.want {
				t.Errorf("KindOf(Err()) = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAuthorizeEmptyExpected(t *testing.T) {
	d := Authorize(Classify("127.0.0.1"), "Bearer ", "")
	if d.Allowed {
		t.Fatal("empty expected token must never authorize")
	}
	d = Authorize(Classify("127.0.0.1"), "Bearer x", "")
	if d.Allowed {
		t.Fatal("empty expected token must never authorize")
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote only", "192.168.1.4:5000", "", "", false, "192.168.1.4"},
		{"xff ignored without trust", "8.8.8.8:5000", "192.168.1.4", "", false, "8.8.8.8"},
		{"xff honored with trust", "127.0.0.1:5000", "192.168.1.4, 10.0.0.1", "", true, "192.168.1.4"},
		{"real ip fallback", "127.0.0.1:5000", "", "10.0.0.9", true, "10.0.0.9"},
		{"ipv6 remote", "[fe80::1]:5000", "", "", false, "fe80::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/status", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientAddr(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}
