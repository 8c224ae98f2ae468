// Package site serves the embedded spectator page: the join QR code and a
// live leaderboard polled from the read routes.
package site

import (
	"net/http"
)

// Register attaches the spectator page at / to mux.
func Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServer(FS())
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}
