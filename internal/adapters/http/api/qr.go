package api

import (
	"errors"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

var errNoJoinURL = errors.New("join URL not configured")

// HandleJoinQR handles GET /join.png?size=N, rendering the join URL as a
// PNG QR code for the spectator screen.
func (s *Server) HandleJoinQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > maxQRSize {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		size = n
	}
	joinURL, err := s.auth.JoinURL(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if joinURL == "" {
		writeError(w, http.StatusNotFound, "not_found", errNoJoinURL)
		return
	}
	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
