package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	name  string
	err   error
	calls int
}

func (r *recordingSender) Send(context.Context, string, string) error {
	r.calls++
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_Filter(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{"open_signal", " "}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "other", "t", "m"))
	assert.Zero(t, s.calls)

	require.NoError(t, n.Notify(context.Background(), "open_signal", "t", "m"))
	assert.Equal(t, 1, s.calls)
	assert.True(t, n.Enabled())
}

func TestNotifier_PartialFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.Notify(context.Background(), "anything", "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Equal(t, 1, good.calls)
}

func TestDiscordSender(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL, "sealedev")
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	require.NoError(t, d.Send(context.Background(), "OPEN: Box", "EV 268.92"))

	assert.Equal(t, "sealedev", got.Username)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "OPEN: Box", got.Embeds[0].Title)
	assert.Equal(t, "EV 268.92", got.Embeds[0].Description)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.Embeds[0].Timestamp)
}

func TestTelegramSender(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "TOKEN", "42")
	require.NoError(t, s.Send(context.Background(), "OPEN: Box", "EV"))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "*OPEN: Box*\nEV", body["text"])

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer bad.Close()
	err := NewTelegramSender(bad.URL, "TOKEN", "42").Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
