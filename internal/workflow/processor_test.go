package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipthread/internal/database"
	"clipthread/internal/drafting"
	"clipthread/internal/llm"
	"clipthread/internal/models"
	"clipthread/internal/queue"
	"clipthread/internal/repository"
	"clipthread/internal/transcription/adapters"
)

type fakeTranscriber struct {
	url   string
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) URL() string { return f.url }

func (f *fakeTranscriber) Transcribe(context.Context, string) (*adapters.TranscriptResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &adapters.TranscriptResult{Text: f.text}, nil
}

type fakeResearcher struct {
	report *drafting.ResearchReport
	err    error
	calls  int
}

func (f *fakeResearcher) Research(context.Context, string) (*drafting.ResearchReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeDrafter struct {
	got    drafting.ResearchReport
	calls  int
	err    error
	before func()
}

func (f *fakeDrafter) Draft(_ context.Context, report drafting.ResearchReport, _ string) ([]string, error) {
	f.calls++
	f.got = report
	if f.before != nil {
		f.before()
	}
	if f.err != nil {
		return nil, f.err
	}
	if report.Notes == "" {
		return nil, drafting.ErrNoResearch
	}
	return []string{"draft: " + report.Notes}, nil
}

// inlineSubmitter runs tasks synchronously.
type inlineSubmitter struct{ submitted []string }

func (s *inlineSubmitter) Submit(name string, fn queue.TaskFunc) (string, error) {
	s.submitted = append(s.submitted, name)
	_ = fn(context.Background())
	return name, nil
}

type fixture struct {
	repo        *repository.VideoRepository
	transcriber *fakeTranscriber
	researcher  *fakeResearcher
	drafter     *fakeDrafter
	tasks       *inlineSubmitter
	processor   *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "wf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		repo:        repository.NewVideoRepository(db),
		transcriber: &fakeTranscriber{url: "https://worker.test", text: "a transcript about open models"},
		researcher: &fakeResearcher{report: &drafting.ResearchReport{
			Notes:   "Open models are close [1].",
			Sources: []drafting.Source{drafting.URLSource("https://a.test")},
		}},
		drafter: &fakeDrafter{},
		tasks:   &inlineSubmitter{},
	}
	f.processor = NewProcessor(f.repo, f.transcriber, f.researcher, f.drafter, f.tasks)
	return f
}

func (f *fixture) create(t *testing.T, v *models.Video) *models.Video {
	t.Helper()
	if v.URL == "" {
		v.URL = "https://video.test/1"
	}
	require.NoError(t, f.repo.Create(context.Background(), v))
	return v
}

func (f *fixture) reload(t *testing.T, id uint) *models.Video {
	t.Helper()
	v, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestProcessor_FullWorkflow(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, &models.Video{})

	_, err := f.processor.Enqueue(v.ID)
	require.NoError(t, err)

	got := f.reload(t, v.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "a transcript about open models", got.Transcription)
	assert.Equal(t, "Open models are close [1].", got.ResearchNotes)
	assert.Equal(t, []string{"draft: Open models are close [1]."}, got.Drafts)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "https://a.test", f.drafter.got.Sources[0].Display())
}

func TestProcessor_NoWorkerLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.transcriber.url = ""
	v := f.create(t, &models.Video{})

	require.NoError(t, f.processor.Transcribe(context.Background(), v.ID))

	assert.Equal(t, models.StatusPending, f.reload(t, v.ID).Status)
	assert.Zero(t, f.transcriber.calls)
}

func TestProcessor_WorkerError(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = &adapters.StatusError{StatusCode: 502, Body: "down"}
	v := f.create(t, &models.Video{})

	err := f.processor.Transcribe(context.Background(), v.ID)
	require.Error(t, err)

	got := f.reload(t, v.ID)
	assert.Equal(t, models.StatusError, got.Status)
	assert.Equal(t, "Worker error: 502 - down", got.Transcription)
	assert.Zero(t, f.researcher.calls)
}

func TestProcessor_ConnectionError(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = errors.New("dial tcp: connection refused")
	v := f.create(t, &models.Video{})

	require.Error(t, f.processor.Transcribe(context.Background(), v.ID))
	assert.Contains(t, f.reload(t, v.ID).Transcription, "Connection failed")
}

func TestProcessor_ResearchQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	f.researcher.err = &llm.APIError{StatusCode: 401, Body: "Authorization Required"}
	v := f.create(t, &models.Video{Transcription: "long enough transcript"})

	require.Error(t, f.processor.Research(context.Background(), v.ID))

	got := f.reload(t, v.ID)
	assert.Equal(t, models.StatusQuotaExceeded, got.Status)
	assert.Contains(t, got.ResearchNotes, "authorization error (401)")
	assert.Zero(t, f.drafter.calls)
}

func TestProcessor_ResearchFailed(t *testing.T) {
	f := newFixture(t)
	f.researcher.err = errors.New("model overloaded")
	v := f.create(t, &models.Video{Transcription: "long enough transcript"})

	require.Error(t, f.processor.Research(context.Background(), v.ID))

	got := f.reload(t, v.ID)
	assert.Equal(t, models.StatusResearchFailed, got.Status)
	assert.Equal(t, "Research failed: model overloaded", got.ResearchNotes)
}

func TestProcessor_DraftWithoutResearch(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, &models.Video{Transcription: "text"})

	err := f.processor.Draft(context.Background(), v.ID)
	assert.ErrorIs(t, err, drafting.ErrNoResearch)
	assert.Equal(t, models.StatusError, f.reload(t, v.ID).Status)
}

func TestProcessor_DraftCancelledRecordsError(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.drafter.before = cancel
	f.drafter.err = context.Canceled
	v := f.create(t, &models.Video{Transcription: "text", ResearchNotes: "notes"})

	err := f.processor.Draft(ctx, v.ID)
	assert.ErrorIs(t, err, context.Canceled)

	got := f.reload(t, v.ID)
	assert.Equal(t, models.StatusError, got.Status)
	assert.Contains(t, got.LastError, "context canceled")
	assert.Empty(t, got.Drafts)
}

func TestProcessor_SmartRetry(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, &models.Video{Transcription: "already transcribed text", Status: models.StatusResearchFailed})

	mode, err := f.processor.Retry(context.Background(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, RetryResearch, mode)
	assert.Zero(t, f.transcriber.calls)
	assert.Equal(t, 1, f.researcher.calls)
	assert.Equal(t, models.StatusCompleted, f.reload(t, v.ID).Status)
}

func TestProcessor_FullRetry(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, &models.Video{Transcription: "short", Status: models.StatusError})

	mode, err := f.processor.Retry(context.Background(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, RetryFull, mode)
	assert.Equal(t, 1, f.transcriber.calls)
	assert.Equal(t, models.StatusCompleted, f.reload(t, v.ID).Status)
}

func TestProcessor_RetryUnknownVideo(t *testing.T) {
	f := newFixture(t)
	_, err := f.processor.Retry(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProcessor_UpdateResearch(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, &models.Video{Transcription: "text", ResearchNotes: "old", Status: models.StatusCompleted})

	_, err := f.processor.UpdateResearch(context.Background(), v.ID, "edited notes")
	require.NoError(t, err)

	got := f.reload(t, v.ID)
	assert.Equal(t, "edited notes", got.ResearchNotes)
	assert.Equal(t, []string{"draft: edited notes"}, got.Drafts)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Zero(t, f.researcher.calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
