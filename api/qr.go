package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	qr "github.com/skip2/go-qrcode"
)

const qrSize = 256

// shareURL is the address a second device opens to watch or join the session
func shareURL(r *http.Request, sessionID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s/?session=%s", scheme, r.Host, sessionID)
}

// handleSessionQR renders the share URL of a session as a PNG
func (s *Server) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	url := shareURL(r, sessionID)
	png, err := qr.Encode(url, qr.Medium, qrSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Share-URL", url)
	w.Write(png)
}
