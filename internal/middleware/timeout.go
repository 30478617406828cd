package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds the whole handler chain. Provider calls inherit the
// request context, so an expired deadline surfaces as a provider timeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
