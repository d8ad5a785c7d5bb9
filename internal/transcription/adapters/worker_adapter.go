package adapters

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"clipthread/pkg/logger"
)

// ErrNoWorkerURL is returned when no transcription worker has been configured.
var ErrNoWorkerURL = errors.New("no transcription worker URL configured")

const (
	DefaultWorkerTimeout = 20 * time.Minute
	DefaultMaxRetries    = 3
	DefaultRetryBackoff  = 5 * time.Second
)

// WorkerOptions configures the HTTP client used to reach the worker.
type WorkerOptions struct {
	Timeout time.Duration
	// InsecureSkipVerify disables TLS verification, for tunnel endpoints with
	// throwaway certificates.
	InsecureSkipVerify bool
	MaxRetries         int
	// RetryBackoff is multiplied by attempt² between retries.
	RetryBackoff time.Duration
}

// TranscriptResult is what the worker returns for one video.
type TranscriptResult struct {
	Text           string
	ProcessingTime time.Duration
}

// StatusError is a non-200 answer from the worker.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("worker error: %d - %s", e.StatusCode, e.Body)
}

// WorkerAdapter sends video links to a remote transcription worker
// (POST {url}/transcribe) and returns the transcript text.
type WorkerAdapter struct {
	mu      sync.RWMutex
	baseURL string

	client       *http.Client
	maxRetries   int
	retryBackoff time.Duration
}

// NewWorkerAdapter creates an adapter. baseURL may be empty and set later.
func NewWorkerAdapter(baseURL string, opts WorkerOptions) *WorkerAdapter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWorkerTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}

	// Force HTTP/1.1: long-running requests through tunnels misbehave on HTTP/2.
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for tunnel endpoints
	}

	a := &WorkerAdapter{
		client:       &http.Client{Timeout: opts.Timeout, Transport: transport},
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}
	a.SetURL(baseURL)
	return a
}

// URL returns the current worker base URL.
func (a *WorkerAdapter) URL() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseURL
}

// SetURL replaces the worker base URL. Whitespace and trailing slashes are dropped.
func (a *WorkerAdapter) SetURL(u string) {
	a.mu.Lock()
	a.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	a.mu.Unlock()
}

// Transcribe asks the worker to transcribe videoURL.
func (a *WorkerAdapter) Transcribe(ctx context.Context, videoURL string) (*TranscriptResult, error) {
	base := a.URL()
	if base == "" {
		return nil, ErrNoWorkerURL
	}
	endpoint := base + "/transcribe"
	startTime := time.Now()

	payload, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.Info("Requesting transcription", "endpoint", endpoint, "video_url", videoURL)

	var resp *http.Response
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = a.client.Do(req)
		if err == nil {
			logger.Debug("Worker responded", "attempt", attempt, "status", resp.StatusCode)
			break
		}

		retryable := isRetryable(err) && ctx.Err() == nil
		if !retryable || attempt == a.maxRetries {
			logger.Error("Transcription request failed",
				"attempt", attempt, "max_retries", a.maxRetries, "retryable", retryable, "error", err)
			return nil, fmt.Errorf("request failed: %w", err)
		}

		backoff := time.Duration(attempt*attempt) * a.retryBackoff
		logger.Warn("Transcription request failed, retrying",
			"attempt", attempt, "max_retries", a.maxRetries, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var workerResponse struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &workerResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &TranscriptResult{
		Text:           workerResponse.Text,
		ProcessingTime: time.Since(startTime),
	}
	logger.Info("Transcription received", "chars", len(result.Text), "duration", result.ProcessingTime)
	return result, nil
}

// isRetryable reports whether err looks like a transient network failure.
func isRetryable(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection closed")
}
