package guard

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// metadataHosts — адреса metadata сервисов облачных провайдеров.
var metadataHosts = map[string]bool{
	"169.254.169.254":          true,
	"metadata.google.internal": true,
	"metadata":                 true,
	"fd00:ec2::254":            true,
}

// numericHost — хосты из цифр, точек и hex-префиксов, которые не являются
// корректным IP, но могут быть истолкованы резолвером как адрес (2130706433, 0x7f.1).
var numericHost = regexp.MustCompile(`^(0x[0-9a-f]+|[0-9]+)(\.(0x[0-9a-f]+|[0-9]+))*$`)

// ParseAndValidateURL разбирает URL и проверяет схему и хост.
//
// Возвращает URL, собранный из разобранных компонентов. Вызывающий
// должен использовать u.String(), а не исходную строку.
// DNS имена не резолвятся, для этого есть Validator.
func ParseAndValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := normalizeHost(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if err := checkHost(host); err != nil {
		return nil, err
	}

	return &url.URL{
		Scheme:   strings.ToLower(u.Scheme),
		User:     u.User,
		Host:     u.Host,
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
		Fragment: u.Fragment,
	}, nil
}

// checkHost проверяет имя хоста или IP литерал.
func checkHost(host string) error {
	if metadataHosts[host] {
		return fmt.Errorf("%w: %s", ErrMetadataEndpoint, host)
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrLoopbackAddress, host)
	}

	if ip := parseIPLiteral(host); ip != nil {
		return CheckIP(ip)
	}

	if numericHost.MatchString(host) {
		return fmt.Errorf("%w: ambiguous numeric host %s", ErrInvalidURL, host)
	}

	return nil
}

// CheckIP проверяет IP адрес по списку запрещённых диапазонов.
func CheckIP(ip net.IP) error {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}

	if metadataHosts[ip.String()] {
		return fmt.Errorf("%w: %s", ErrMetadataEndpoint, ip)
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("%w: %s", ErrLoopbackAddress, ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("%w: %s", ErrLinkLocalAddress, ip)
	case ip.IsPrivate(), ip.IsUnspecified(), ip.IsMulticast(), inThisNetwork(ip):
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
	}

	return nil
}

// inThisNetwork проверяет диапазон 0.0.0.0/8.
func inThisNetwork(ip net.IP) bool {
	v4 := ip.To4()
	return v4 != nil && v4[0] == 0
}

// parseIPLiteral разбирает IP литерал, отбрасывая IPv6 зону (fe80::1%eth0).
func parseIPLiteral(host string) net.IP {
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	return net.ParseIP(host)
}

// normalizeHost приводит имя хоста к нижнему регистру без завершающей точки.
func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// Resolver — источник IP адресов для имени хоста.
// net.DefaultResolver удовлетворяет этому интерфейсу.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validator проверяет URL и, если задан Resolver, все адреса,
// в которые резолвится имя хоста.
type Validator struct {
	Resolver Resolver
}

// NewValidator создаёт Validator. resolve=false отключает DNS проверку.
func NewValidator(resolve bool) *Validator {
	v := &Validator{}
	if resolve {
		v.Resolver = net.DefaultResolver
	}
	return v
}

// Validate проверяет URL. Без Resolver эквивалентен ParseAndValidateURL.
func (v *Validator) Validate(ctx context.Context, raw string) (*url.URL, error) {
	u, err := ParseAndValidateURL(raw)
	if err != nil {
		return nil, err
	}

	if v == nil || v.Resolver == nil {
		return u, nil
	}

	host := normalizeHost(u.Hostname())
	if parseIPLiteral(host) != nil {
		return u, nil
	}

	addrs, err := v.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if err := CheckIP(addr.IP); err != nil {
			return nil, fmt.Errorf("%s resolves to blocked address: %w", host, err)
		}
	}

	return u, nil
}
