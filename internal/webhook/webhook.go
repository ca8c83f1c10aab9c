// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webhook receives bookmark events from the bookmark service and
// hands them to the pipeline.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// signatureHeader carries the hex HMAC-SHA256 of the request body.
const signatureHeader = "X-Webhook-Signature"

// Event is a delivered bookmark notification.
type Event struct {
	Event    string         `json:"event"`
	Bookmark types.Bookmark `json:"bookmark"`
}

// BookmarkHandler processes a delivered bookmark. Called on its own
// goroutine so slow pipelines do not block delivery acknowledgement.
type BookmarkHandler interface {
	HandleBookmark(bm types.Bookmark)
}

// Server is the webhook receiver.
type Server struct {
	secret  string
	handler BookmarkHandler
	log     zerolog.Logger
	router  chi.Router
}

// NewServer builds the receiver. An empty secret disables signature
// verification.
func NewServer(cfg types.SourceConfig, handler BookmarkHandler, log zerolog.Logger) *Server {
	s := &Server{
		secret:  cfg.WebhookSecret,
		handler: handler,
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/webhooks/bookmarks", s.handleBookmarkEvent)
	s.router = r

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving on the configured address.
func (s *Server) ListenAndServe(cfg types.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.log.Info().Str("addr", addr).Msg("webhook server listening")
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleBookmarkEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if !s.verifySignature(body, r.Header.Get(signatureHeader)) {
		s.log.Warn().Msg("webhook signature mismatch")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if event.Bookmark.ID == "" {
		http.Error(w, "missing bookmark", http.StatusBadRequest)
		return
	}

	s.log.Info().
		Str("event", event.Event).
		Str("bookmark", event.Bookmark.ID).
		Msg("webhook event received")

	go s.handler.HandleBookmark(event.Bookmark)

	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"accepted":true}`))
}

// verifySignature checks the hex HMAC-SHA256 of the body. Verification is
// skipped when no secret is configured.
func (s *Server) verifySignature(body []byte, signature string) bool {
	if s.secret == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
