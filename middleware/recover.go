package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Recoverer turns a panic into a 500 with a JSON body carrying the panic
// message. Expected failures never get here; handlers flash them instead.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			message := fmt.Sprint(rec)
			if err, ok := rec.(error); ok {
				message = err.Error()
			}
			slog.Error("Unhandled panic",
				"error", message,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errorResponse{
				Error:   "Internal Server Error",
				Message: message,
			})
		}()

		next.ServeHTTP(w, r)
	})
}
