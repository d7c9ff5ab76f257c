package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// secretTokenHeader is set by Telegram on every webhook push when a
// secret token was registered with setWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookAuth rejects webhook requests that do not carry the secret
// token registered with Telegram. An empty secret disables the check,
// for local development against a tunnel.
func WebhookAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := r.Header.Get(secretTokenHeader)
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					logger.Warn("webhook_auth_failed",
						zap.String("remote_addr", r.RemoteAddr))
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
