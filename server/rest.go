package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/umputun/lequel/pkg/langid"
	"github.com/umputun/lequel/pkg/trigram"
)

// identifyRequest is the JSON body of POST /identify
type identifyRequest struct {
	Text string `json:"text"`
}

// identifyResponse is the result of POST /identify
type identifyResponse struct {
	Code    string         `json:"code"`
	Score   float64        `json:"score"`
	Matched bool           `json:"matched"`
	Result  string         `json:"result"`
	Scores  []langid.Score `json:"scores"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"version":   s.version,
		"languages": len(s.identifier.Languages()),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// languagesHandler returns catalog language codes in tie-break order
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, map[string]any{"languages": s.identifier.Languages()})
}

// identifyHandler identifies the language of the posted text. The body is either
// JSON {"text": "..."} or, with a text/plain content type, the text itself.
func (s *Server) identifyHandler(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	res, scores, err := s.identifier.Analyze(text)
	if err != nil {
		if errors.Is(err, trigram.ErrInvalidUTF8) {
			renderError(w, r, err, http.StatusUnprocessableEntity)
			return
		}
		log.Printf("[ERROR] failed to identify text: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, r, http.StatusOK, identifyResponse{
		Code:    res.Code,
		Score:   res.Score,
		Matched: res.Matched(),
		Result:  res.String(),
		Scores:  scores,
	})
}

func readText(r *http.Request) (trigram.Text, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return splitLines(string(body)), nil
	}

	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return splitLines(req.Text), nil
}

func splitLines(s string) trigram.Text {
	if s == "" {
		return trigram.Text{}
	}
	return strings.Split(s, "\n")
}
