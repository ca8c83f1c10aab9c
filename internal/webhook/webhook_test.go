// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

type recordingHandler struct {
	mu        sync.Mutex
	bookmarks []types.Bookmark
	done      chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, 8)}
}

func (h *recordingHandler) HandleBookmark(bm types.Bookmark) {
	h.mu.Lock()
	h.bookmarks = append(h.bookmarks, bm)
	h.mu.Unlock()
	h.done <- struct{}{}
}

func (h *recordingHandler) wait(t *testing.T) types.Bookmark {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bookmarks[len(h.bookmarks)-1]
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

const eventJSON = `{"event": "bookmark.created", "bookmark": {"id": "bm_1", "text": "hello"}}`

func TestWebhookDeliversBookmark(t *testing.T) {
	h := newRecordingHandler()
	s := NewServer(types.SourceConfig{WebhookSecret: "s3cret"}, h, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/bookmarks", strings.NewReader(eventJSON))
	req.Header.Set(signatureHeader, sign("s3cret", eventJSON))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	bm := h.wait(t)
	if bm.ID != "bm_1" {
		t.Errorf("bookmark = %+v", bm)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newRecordingHandler()
	s := NewServer(types.SourceConfig{WebhookSecret: "s3cret"}, h, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/bookmarks", strings.NewReader(eventJSON))
	req.Header.Set(signatureHeader, "deadbeef")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWebhookSkipsVerificationWithoutSecret(t *testing.T) {
	h := newRecordingHandler()
	s := NewServer(types.SourceConfig{}, h, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/bookmarks", strings.NewReader(eventJSON))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d", rec.Code)
	}
	h.wait(t)
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	s := NewServer(types.SourceConfig{}, newRecordingHandler(), zerolog.Nop())

	for _, body := range []string{"not json", `{"event": "bookmark.created", "bookmark": {}}`} {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/bookmarks", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d for body %q", rec.Code, body)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(types.SourceConfig{}, newRecordingHandler(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}
