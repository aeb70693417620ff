// Package api — общие помощники HTTP-ответов.
package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse — тело ответа с сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// JSON пишет v как JSON с указанным статусом.
func JSON(w http.ResponseWriter, status int, v any) {
	Write(w, status, "application/json", v)
}

// Write пишет v как JSON с указанным Content-Type.
func Write(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error пишет {"detail": ...} с указанным статусом.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorResponse{Detail: detail})
}

// Accepts сообщает, что клиент явно запросил contentType в заголовке Accept.
func Accepts(r *http.Request, contentType string) bool {
	for _, v := range r.Header.Values("Accept") {
		for _, part := range strings.Split(v, ",") {
			mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err == nil && mt == contentType {
				return true
			}
		}
	}
	return false
}
