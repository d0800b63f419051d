package server

import (
	"bytes"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/umputun/feedgen/pkg/ui"
)

// pageData is the index template input
type pageData struct {
	State   ui.State
	Version string
}

// indexHandler renders the empty generator page
func (s *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, ui.State{})
}

// generatePageHandler runs the generation for the submitted url and renders the result.
// Each request gets its own controller, the page holds no state between requests.
func (s *Server) generatePageHandler(w http.ResponseWriter, r *http.Request) {
	ctl := ui.NewController(ui.Deps{Fetcher: s.fetcher})
	st := ctl.Submit(r.Context(), r.FormValue("url"))

	code := http.StatusOK
	if st.Phase == ui.PhaseError {
		code = http.StatusBadGateway
	}
	s.renderPage(w, code, st)
}

// downloadHandler returns the posted feed as an attachment named after the source url
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("feed")
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "feed is required", http.StatusBadRequest)
		return
	}
	if _, err := ui.SaveFeed(&attachmentSaver{w: w}, r.FormValue("url"), raw); err != nil {
		log.Printf("[WARN] failed to send feed download: %v", err)
	}
}

func (s *Server) renderPage(w http.ResponseWriter, code int, st ui.State) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", pageData{State: st, Version: s.version}); err != nil {
		log.Printf("[ERROR] failed to render page: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write page: %v", err)
	}
}

// attachmentSaver writes a saved feed into the response as a file download
type attachmentSaver struct {
	w http.ResponseWriter
}

func (a *attachmentSaver) Save(name string, data []byte) (string, error) {
	a.w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	a.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	a.w.Header().Set("X-Content-Type-Options", "nosniff")
	a.w.WriteHeader(http.StatusOK)
	if _, err := a.w.Write(data); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return name, nil
}
