package handlers

import "net/http"

// NewRouter builds the API route table. auth wraps the image routes;
// session routes manage the cookie themselves.
func NewRouter(session *SessionHandler, images *ImageHandler, auth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Session identity
	mux.HandleFunc("POST /api/users", session.Signup)
	mux.HandleFunc("POST /api/session", session.Login)
	mux.HandleFunc("GET /api/session", session.Restore)
	mux.HandleFunc("DELETE /api/session", session.Logout)

	// Images (owner-only)
	mux.Handle("GET /api/images/{userId}", auth(http.HandlerFunc(images.List)))
	mux.Handle("POST /api/images/{userId}", auth(http.HandlerFunc(images.Upload)))

	return mux
}
