package guard

import "errors"

// ErrSSRFBlocked — базовая ошибка для всех отказов guard.
var ErrSSRFBlocked = errors.New("outbound request blocked")

// Причины отказа. Каждая оборачивает ErrSSRFBlocked.
var (
	// ErrInvalidURL — URL не разбирается или хост неоднозначен.
	ErrInvalidURL = blocked("invalid url")

	// ErrUnsupportedScheme — схема отличается от http/https.
	ErrUnsupportedScheme = blocked("unsupported url scheme")

	// ErrLoopbackAddress — localhost или loopback адрес.
	ErrLoopbackAddress = blocked("loopback address")

	// ErrPrivateAddress — адрес из приватного диапазона.
	ErrPrivateAddress = blocked("private network address")

	// ErrLinkLocalAddress — link-local адрес.
	ErrLinkLocalAddress = blocked("link-local address")

	// ErrMetadataEndpoint — адрес облачного metadata сервиса.
	ErrMetadataEndpoint = blocked("cloud metadata endpoint")

	// ErrBlockedValue — в запрос подставлено заблокированное значение.
	ErrBlockedValue = blocked("interpolated value looks like a url")
)

// reasonError — причина отказа, связанная с ErrSSRFBlocked.
type reasonError struct {
	reason string
}

func (e *reasonError) Error() string {
	return ErrSSRFBlocked.Error() + ": " + e.reason
}

func (e *reasonError) Unwrap() error {
	return ErrSSRFBlocked
}

func blocked(reason string) error {
	return &reasonError{reason: reason}
}
