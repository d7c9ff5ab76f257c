package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTicker struct {
	processed int
	err       error
}

func (f *fakeTicker) Tick(_ context.Context, _ time.Time) (int, error) {
	return f.processed, f.err
}

func TestTick(t *testing.T) {
	t.Parallel()

	h := NewTickHandler(&fakeTicker{processed: 3}, zap.NewNop())
	req := httptest.NewRequest("POST", "/api/v1/tick", nil)
	rr := httptest.NewRecorder()
	h.Tick(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	data := decodeData(t, rr.Body)
	if data["processed"] != float64(3) {
		t.Errorf("got processed %v, want 3", data["processed"])
	}
}

func TestTickError(t *testing.T) {
	t.Parallel()

	h := NewTickHandler(&fakeTicker{err: errors.New("db down")}, zap.NewNop())
	req := httptest.NewRequest("POST", "/api/v1/tick", nil)
	rr := httptest.NewRecorder()
	h.Tick(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rr.Code)
	}
}
