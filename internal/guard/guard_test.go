package guard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeMockValue ---

func TestSanitizeMockValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"absolute url", "https://evil.example/a", BlockedValue},
		{"protocol relative", "//evil.example", BlockedValue},
		{"backslash variant", `\\evil.example`, BlockedValue},
		{"uppercase scheme", "HTTP://evil.example", BlockedValue},
		{"leading whitespace", "  ftp://evil.example", BlockedValue},
		{"custom scheme", "gopher+x://evil", BlockedValue},
		{"integer", 42, "42"},
		{"float", 3.5, "3.5"},
		{"whole float", float64(42), "42"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"plain string", "hello world", "hello world"},
		{"path segment", "users/42", "users/42"},
		{"colon without slashes", "mailto:someone", "mailto:someone"},
		{"object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeMockValue(tt.value))
		})
	}
}

// --- ParseAndValidateURL ---

func TestParseAndValidateURL_Accepts(t *testing.T) {
	u, err := ParseAndValidateURL("https://api.example.com/x?y=1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/x?y=1", u.String())

	u, err = ParseAndValidateURL("  HTTP://Example.com:8443/a%2Fb  ")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "http://Example.com:8443/a%2Fb", u.String())
}

func TestParseAndValidateURL_Rejects(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"http://127.0.0.1/x", ErrLoopbackAddress},
		{"http://127.8.9.10/x", ErrLoopbackAddress},
		{"http://localhost/users/42", ErrLoopbackAddress},
		{"http://api.localhost/", ErrLoopbackAddress},
		{"http://[::1]:8080/", ErrLoopbackAddress},
		{"http://[::ffff:127.0.0.1]/", ErrLoopbackAddress},
		{"http://169.254.169.254/latest", ErrMetadataEndpoint},
		{"http://metadata.google.internal/computeMetadata/v1", ErrMetadataEndpoint},
		{"http://metadata.google.internal./", ErrMetadataEndpoint},
		{"http://169.254.1.1/", ErrLinkLocalAddress},
		{"http://[fe80::1]/", ErrLinkLocalAddress},
		{"http://[fe80::1%25eth0]/x", ErrLinkLocalAddress},
		{"http://[::1%25lo]/x", ErrLoopbackAddress},
		{"http://10.1.2.3/", ErrPrivateAddress},
		{"http://172.16.0.1/", ErrPrivateAddress},
		{"http://172.31.255.255/", ErrPrivateAddress},
		{"http://192.168.0.10/", ErrPrivateAddress},
		{"http://0.0.0.0/", ErrPrivateAddress},
		{"http://0.1.2.3/", ErrPrivateAddress},
		{"http://[fd12::1]/", ErrPrivateAddress},
		{"http://2130706433/", ErrInvalidURL},
		{"http://0x7f.1/", ErrInvalidURL},
		{"ftp://example.com/file", ErrUnsupportedScheme},
		{"file:///etc/passwd", ErrUnsupportedScheme},
		{"javascript:alert(1)", ErrUnsupportedScheme},
		{"https:///nohost", ErrInvalidURL},
		{"http://%zz", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := ParseAndValidateURL(tt.raw)
			assert.Nil(t, u)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrSSRFBlocked)
		})
	}
}

func TestParseAndValidateURL_PublicRangesAllowed(t *testing.T) {
	for _, raw := range []string{
		"http://172.32.0.1/",
		"http://8.8.8.8/",
		"https://[2001:4860:4860::8888]/",
	} {
		_, err := ParseAndValidateURL(raw)
		assert.NoError(t, err, raw)
	}
}

// --- Validator ---

type stubResolver map[string][]string

func (r stubResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	addrs := make([]net.IPAddr, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return addrs, nil
}

func TestValidator_ResolvesHosts(t *testing.T) {
	v := &Validator{Resolver: stubResolver{
		"public.test":   {"93.184.216.34"},
		"rebind.test":   {"93.184.216.34", "10.0.0.5"},
		"internal.test": {"127.0.0.1"},
	}}
	ctx := context.Background()

	u, err := v.Validate(ctx, "https://public.test/a")
	require.NoError(t, err)
	assert.Equal(t, "https://public.test/a", u.String())

	_, err = v.Validate(ctx, "https://rebind.test/a")
	assert.ErrorIs(t, err, ErrPrivateAddress)

	_, err = v.Validate(ctx, "https://internal.test/a")
	assert.ErrorIs(t, err, ErrLoopbackAddress)

	_, err = v.Validate(ctx, "https://missing.test/a")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestValidator_WithoutResolver(t *testing.T) {
	var v *Validator
	_, err := v.Validate(context.Background(), "https://anything.test/")
	assert.NoError(t, err)

	_, err = NewValidator(false).Validate(context.Background(), "http://127.0.0.1/")
	assert.ErrorIs(t, err, ErrLoopbackAddress)
}

// --- Transport ---

func TestDialControl(t *testing.T) {
	assert.ErrorIs(t, dialControl("tcp", "127.0.0.1:80", nil), ErrLoopbackAddress)
	assert.ErrorIs(t, dialControl("tcp", "[::1]:443", nil), ErrLoopbackAddress)
	assert.ErrorIs(t, dialControl("tcp", "10.0.0.1:443", nil), ErrPrivateAddress)
	assert.ErrorIs(t, dialControl("tcp", "[fe80::1%eth0]:80", nil), ErrLinkLocalAddress)
	assert.ErrorIs(t, dialControl("tcp", "[::1%lo]:80", nil), ErrLoopbackAddress)
	assert.NoError(t, dialControl("tcp", "93.184.216.34:443", nil))
}

func TestCheckRedirect(t *testing.T) {
	check := CheckRedirect(2)

	target, _ := url.Parse("http://169.254.169.254/latest")
	err := check(&http.Request{URL: target}, []*http.Request{{}})
	assert.ErrorIs(t, err, ErrMetadataEndpoint)

	target, _ = url.Parse("https://example.com/next")
	assert.NoError(t, check(&http.Request{URL: target}, []*http.Request{{}}))
	assert.Error(t, check(&http.Request{URL: target}, []*http.Request{{}, {}}))
}
