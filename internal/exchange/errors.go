package exchange

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

var ErrNoCredentials = errors.New("okx: api credentials are not configured")

// коды OKX, после которых имеет смысл повторить запрос
var temporaryCodes = map[string]bool{
	"50001": true, // service temporarily unavailable
	"50004": true, // endpoint request timeout
	"50011": true, // rate limit reached
	"50013": true, // system busy
	"50026": true, // system error
}

// APIError: ответ биржи с ошибкой, HTTP-статус или код OKX.
type APIError struct {
	Op         string
	HTTPStatus int
	Code       string
	Msg        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: okx code=%s msg=%s", e.Op, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.HTTPStatus, e.Msg)
}

// Temporary: ошибку можно повторить в следующем цикле.
func (e *APIError) Temporary() bool {
	if e.HTTPStatus == http.StatusTooManyRequests || e.HTTPStatus >= 500 {
		return true
	}
	return temporaryCodes[e.Code]
}

// IsTemporary классифицирует ошибку как сетевую/временную.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
