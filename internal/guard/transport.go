package guard

import (
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Dialer возвращает net.Dialer, который отказывается соединяться
// с запрещёнными адресами. Проверяется IP после резолва.
func Dialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
}

// dialControl вызывается перед connect() для каждого адреса.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	ip := parseIPLiteral(host)
	if ip == nil {
		return fmt.Errorf("%w: dial to non-ip address %s", ErrInvalidURL, host)
	}
	return CheckIP(ip)
}

// NewTransport создаёт http.Transport с проверкой адресов при соединении.
// Прокси из окружения не используются: запрос должен идти напрямую к проверенному адресу.
func NewTransport(dialTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           Dialer(dialTimeout).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// CheckRedirect проверяет каждый редирект тем же правилом, что и исходный URL.
func CheckRedirect(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		_, err := ParseAndValidateURL(req.URL.String())
		return err
	}
}
