package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipthread/internal/models"
	"clipthread/internal/transcription/adapters"
)

type memStore map[string]string

func (m memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memStore) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestSettings_LoadOverridesConfiguredURL(t *testing.T) {
	store := memStore{models.KeyTranscriberURL: "https://saved.test/"}
	worker := adapters.NewWorkerAdapter("https://configured.test", adapters.WorkerOptions{})
	s := NewSettings(store, worker)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "https://saved.test", s.TranscriberURL())
}

func TestSettings_LoadKeepsConfiguredURLWhenUnset(t *testing.T) {
	worker := adapters.NewWorkerAdapter("https://configured.test", adapters.WorkerOptions{})
	s := NewSettings(memStore{}, worker)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "https://configured.test", s.TranscriberURL())
}

func TestSettings_SetTranscriberURL(t *testing.T) {
	store := memStore{}
	worker := adapters.NewWorkerAdapter("", adapters.WorkerOptions{})
	s := NewSettings(store, worker)

	require.NoError(t, s.SetTranscriberURL(context.Background(), " https://tunnel.test "))
	assert.Equal(t, "https://tunnel.test", worker.URL())
	assert.Equal(t, "https://tunnel.test", store[models.KeyTranscriberURL])

	assert.Error(t, s.SetTranscriberURL(context.Background(), "ftp://nope"))
	assert.Error(t, s.SetTranscriberURL(context.Background(), "not a url"))
	assert.Equal(t, "https://tunnel.test", worker.URL())

	require.NoError(t, s.SetTranscriberURL(context.Background(), ""))
	assert.Equal(t, "", worker.URL())
}
