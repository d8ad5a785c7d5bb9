package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipthread/internal/database"
	"clipthread/internal/drafting"
	"clipthread/internal/queue"
	"clipthread/internal/repository"
	"clipthread/internal/transcription/adapters"
	"clipthread/internal/workflow"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	worker := adapters.NewWorkerAdapter("", adapters.WorkerOptions{})
	return &App{
		db:       db,
		queue:    queue.New(1, 10),
		drafter:  &SwappableDrafter{},
		settings: workflow.NewSettings(repository.NewSettingsRepository(db), worker),
		server: &http.Server{
			Addr:              "127.0.0.1:0",
			Handler:           http.NotFoundHandler(),
			ReadHeaderTimeout: time.Second,
		},
	}
}

func TestRun_DrainsQueuedTasksAfterCancel(t *testing.T) {
	a := newTestApp(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var firstErr error
	_, err := a.queue.Submit("first", func(ctx context.Context) error {
		close(started)
		<-release
		firstErr = ctx.Err()
		return nil
	})
	require.NoError(t, err)

	secondRan := make(chan struct{})
	_, err = a.queue.Submit("second", func(ctx context.Context) error {
		close(secondRan)
		return ctx.Err()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first task never started")
	}
	cancel()
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.NoError(t, firstErr, "running task must keep a live context during shutdown")
	select {
	case <-secondRan:
	default:
		t.Fatal("queued task was dropped on shutdown")
	}
}

func TestSwappableDrafter(t *testing.T) {
	var s SwappableDrafter
	_, err := s.Draft(context.Background(), drafting.ResearchReport{Notes: "x"}, "")
	assert.Error(t, err)

	backend := drafting.BackendFunc(func(context.Context, drafting.Request) (drafting.Response, error) {
		return drafting.StructuredResponse{Drafts: []string{"first"}}, nil
	})
	d, err := drafting.NewDrafter(backend, drafting.DefaultOptions())
	require.NoError(t, err)
	s.Store(d)

	drafts, err := s.Draft(context.Background(), drafting.ResearchReport{Notes: "# Heading\nbody"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, drafts)
}
