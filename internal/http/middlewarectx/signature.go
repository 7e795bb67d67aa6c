// Package middlewarectx содержит middleware HTTP-сервера сверки:
// проверку подписи обратных вызовов шлюза и ограничение частоты запросов.
package middlewarectx

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/rental-ledger/internal/http/response"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
)

// SignatureHeader заголовок с HMAC-SHA256 тела запроса в base64.
const SignatureHeader = "X-Api-Signature"

// Sign возвращает подпись тела для заголовка SignatureHeader.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подпись обратного вызова шлюза.
// Тело длиннее maxBody отклоняется с 413. С пустым secret проверка
// подписи отключена, ограничение размера остаётся.
func VerifySignature(log *slog.Logger, secret string, maxBody int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					log.Warn("callback body too large", slog.Int64("limit", tooLarge.Limit), slog.String("path", r.URL.Path))
					render.Status(r, http.StatusRequestEntityTooLarge)
					render.JSON(w, r, response.Error("request body too large"))
					return
				}
				log.Error("failed to read callback body", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid request body"))
				return
			}
			_ = r.Body.Close()

			signature := r.Header.Get(SignatureHeader)
			if signature == "" || !hmac.Equal([]byte(Sign(secret, body)), []byte(signature)) {
				log.Warn("invalid or missing callback signature", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid signature"))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
