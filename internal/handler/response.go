package handler

import (
	"net/http"

	"github.com/openclaw/dailyflows-gateway-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError maps an error onto the {ok:false, error} JSON shape with the
// status derived from its code.
func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// writeText answers the webhook caller in the plain-text dialect the
// Dailyflows provider expects.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
