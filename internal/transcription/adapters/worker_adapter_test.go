package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerAdapter_NoURL(t *testing.T) {
	a := NewWorkerAdapter("  ", WorkerOptions{})
	_, err := a.Transcribe(context.Background(), "https://video.test/1")
	assert.ErrorIs(t, err, ErrNoWorkerURL)
}

func TestWorkerAdapter_SetURL(t *testing.T) {
	a := NewWorkerAdapter("", WorkerOptions{})
	a.SetURL(" https://worker.test/// ")
	assert.Equal(t, "https://worker.test", a.URL())
}

func TestWorkerAdapter_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://video.test/1", body["url"])
		_, _ = w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	a := NewWorkerAdapter(srv.URL+"/", WorkerOptions{})
	res, err := a.Transcribe(context.Background(), "https://video.test/1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
}

func TestWorkerAdapter_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("tunnel offline"))
	}))
	defer srv.Close()

	a := NewWorkerAdapter(srv.URL, WorkerOptions{})
	_, err := a.Transcribe(context.Background(), "https://video.test/1")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "worker error: 502 - tunnel offline", statusErr.Error())
}

func TestWorkerAdapter_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// drop the connection without a response
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"text": "second try"}`))
	}))
	defer srv.Close()

	a := NewWorkerAdapter(srv.URL, WorkerOptions{RetryBackoff: time.Millisecond})
	res, err := a.Transcribe(context.Background(), "https://video.test/1")
	require.NoError(t, err)
	assert.Equal(t, "second try", res.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWorkerAdapter_ConnectionRefusedGivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	a := NewWorkerAdapter("http://"+addr, WorkerOptions{MaxRetries: 2, RetryBackoff: time.Millisecond})
	_, err = a.Transcribe(context.Background(), "https://video.test/1")
	assert.ErrorContains(t, err, "request failed")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("read: connection reset by peer")))
	assert.True(t, isRetryable(errors.New("unexpected EOF")))
	assert.False(t, isRetryable(errors.New("unsupported protocol scheme")))
}
