package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/umputun/feedgen/pkg/llm"
)

// generateHandler relays the target url to the backend and streams generated feed text back.
// Failures before the first chunk are reported with a status code, later ones with the error trailer.
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		RenderError(w, r, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	if s.generator == nil {
		RenderJSON(w, r, http.StatusInternalServerError, llm.RelayError{
			Error: "generative backend is not configured, set the API key", Kind: llm.ErrorKindConfiguration})
		return
	}

	var req llm.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		RenderError(w, r, errors.New("url is required"), http.StatusBadRequest)
		return
	}
	targetURL := strings.TrimSpace(req.URL)

	flusher, _ := w.(http.Flusher)
	started, chunks := false, 0
	for chunk, err := range s.generator.Stream(r.Context(), llm.NewRequest(targetURL)) {
		if err != nil {
			if !started {
				log.Printf("[WARN] generate feed for %s: %v", targetURL, err)
				renderGenerateError(w, r, err)
				return
			}
			log.Printf("[WARN] feed stream for %s interrupted after %d chunks: %v", targetURL, chunks, err)
			w.Header().Set(llm.ErrorTrailer, err.Error())
			return
		}
		if chunk == "" {
			continue
		}
		if !started {
			writeFeedHeader(w)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			log.Printf("[WARN] failed to write feed chunk for %s: %v", targetURL, err)
			return
		}
		chunks++
		if flusher != nil {
			flusher.Flush()
		}
	}

	if !started {
		writeFeedHeader(w) // empty stream is still a success
	}
	log.Printf("[DEBUG] relayed feed for %s in %d chunks", targetURL, chunks)
}

func writeFeedHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Trailer", llm.ErrorTrailer)
	w.WriteHeader(http.StatusOK)
}

// renderGenerateError keeps the backend status for service errors and reports the rest as bad gateway
func renderGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, llm.ErrConfiguration) {
		RenderJSON(w, r, http.StatusInternalServerError, llm.RelayError{Error: err.Error(), Kind: llm.ErrorKindConfiguration})
		return
	}
	var se *llm.ServiceError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 600 {
		RenderError(w, r, err, se.StatusCode)
		return
	}
	RenderError(w, r, err, http.StatusBadGateway)
}
