package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipthread/internal/drafting"
	"clipthread/internal/llm"
	"clipthread/internal/metrics"
	"clipthread/internal/models"
	"clipthread/internal/queue"
	"clipthread/internal/transcription/adapters"
	"clipthread/pkg/logger"
)

// minRetryTranscription is the transcription length above which a retry
// skips the worker and re-runs research only.
const minRetryTranscription = 10

// quotaDetailLimit caps the provider message stored with a quota failure.
const quotaDetailLimit = 200

type VideoStore interface {
	FindByID(ctx context.Context, id uint) (*models.Video, error)
	Save(ctx context.Context, video *models.Video) error
	UpdateStatus(ctx context.Context, id uint, status models.VideoStatus) error
}

type Transcriber interface {
	URL() string
	Transcribe(ctx context.Context, videoURL string) (*adapters.TranscriptResult, error)
}

type Researcher interface {
	Research(ctx context.Context, transcription string) (*drafting.ResearchReport, error)
}

type Drafter interface {
	Draft(ctx context.Context, report drafting.ResearchReport, transcription string) ([]string, error)
}

type Submitter interface {
	Submit(name string, fn queue.TaskFunc) (string, error)
}

// RetryMode says which stage a retry restarts from.
type RetryMode string

const (
	RetryFull     RetryMode = "full"
	RetryResearch RetryMode = "research"
)

// Processor drives a video through transcription, research and drafting.
// Each stage chains into the next on success.
type Processor struct {
	videos      VideoStore
	transcriber Transcriber
	researcher  Researcher
	drafter     Drafter
	tasks       Submitter
}

func NewProcessor(videos VideoStore, transcriber Transcriber, researcher Researcher, drafter Drafter, tasks Submitter) *Processor {
	return &Processor{
		videos:      videos,
		transcriber: transcriber,
		researcher:  researcher,
		drafter:     drafter,
		tasks:       tasks,
	}
}

// Enqueue schedules the full workflow for a newly created video.
func (p *Processor) Enqueue(id uint) (string, error) {
	return p.tasks.Submit(fmt.Sprintf("process-video-%d", id), func(ctx context.Context) error {
		return p.Transcribe(ctx, id)
	})
}

// Retry restarts a video. A video that already has a transcription only
// re-runs research; otherwise the whole workflow runs again.
func (p *Processor) Retry(ctx context.Context, id uint) (RetryMode, error) {
	video, err := p.videos.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if len(video.Transcription) > minRetryTranscription {
		logger.Info("Video has a transcription, retrying research only", "video_id", id)
		if err := p.videos.UpdateStatus(ctx, id, models.StatusResearching); err != nil {
			return "", err
		}
		_, err := p.tasks.Submit(fmt.Sprintf("research-video-%d", id), func(ctx context.Context) error {
			return p.Research(ctx, id)
		})
		return RetryResearch, err
	}

	logger.Info("Retrying full workflow", "video_id", id)
	if err := p.videos.UpdateStatus(ctx, id, models.StatusPending); err != nil {
		return "", err
	}
	_, err = p.Enqueue(id)
	return RetryFull, err
}

// UpdateResearch replaces the research notes and re-runs drafting.
func (p *Processor) UpdateResearch(ctx context.Context, id uint, notes string) (*models.Video, error) {
	video, err := p.videos.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	video.ResearchNotes = notes
	video.Status = models.StatusDrafting
	if err := p.videos.Save(ctx, video); err != nil {
		return nil, err
	}
	if _, err := p.tasks.Submit(fmt.Sprintf("draft-video-%d", id), func(ctx context.Context) error {
		return p.Draft(ctx, id)
	}); err != nil {
		return nil, err
	}
	return video, nil
}

// Transcribe sends the video to the transcription worker and continues with
// research. Without a configured worker the video is left pending.
func (p *Processor) Transcribe(ctx context.Context, id uint) error {
	if p.transcriber.URL() == "" {
		logger.Warn("No transcription worker configured, skipping transcription", "video_id", id)
		return nil
	}
	if err := p.transcribe(ctx, id); err != nil {
		return err
	}
	return p.Research(ctx, id)
}

// Research fact-checks the transcription and continues with drafting.
func (p *Processor) Research(ctx context.Context, id uint) error {
	next, err := p.research(ctx, id)
	if err != nil || !next {
		return err
	}
	return p.Draft(ctx, id)
}

func (p *Processor) transcribe(ctx context.Context, id uint) (err error) {
	video, err := p.videos.FindByID(ctx, id)
	if err != nil {
		return err
	}
	defer observe("transcribe", time.Now(), &err)

	video.Status = models.StatusTranscribing
	if err := p.videos.Save(ctx, video); err != nil {
		return err
	}

	result, err := p.transcriber.Transcribe(ctx, video.URL)
	if err != nil {
		var statusErr *adapters.StatusError
		if errors.As(err, &statusErr) {
			video.Transcription = fmt.Sprintf("Worker error: %d - %s", statusErr.StatusCode, statusErr.Body)
		} else {
			video.Transcription = fmt.Sprintf("Connection failed: %v", err)
		}
		p.fail(ctx, video, models.StatusError, err)
		return err
	}

	video.Transcription = result.Text
	video.Status = models.StatusResearching
	video.LastError = ""
	return p.videos.Save(ctx, video)
}

func (p *Processor) research(ctx context.Context, id uint) (next bool, err error) {
	video, err := p.videos.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(video.Transcription) == "" {
		logger.Error("Video has no transcription to research", "video_id", id)
		return false, nil
	}
	defer observe("research", time.Now(), &err)
	logger.Info("Starting research", "video_id", id)

	report, err := p.researcher.Research(ctx, video.Transcription)
	if err != nil {
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthError() {
			video.ResearchNotes = fmt.Sprintf(
				"Research failed: insufficient API quota or authorization error (%d).\n\nDetails: %s...",
				apiErr.StatusCode, truncate(err.Error(), quotaDetailLimit))
			p.fail(ctx, video, models.StatusQuotaExceeded, err)
		} else {
			video.ResearchNotes = fmt.Sprintf("Research failed: %v", err)
			p.fail(ctx, video, models.StatusResearchFailed, err)
		}
		return false, err
	}

	video.ResearchNotes = report.Notes
	video.Sources = report.Sources
	video.Status = models.StatusDrafting
	video.LastError = ""
	if err := p.videos.Save(ctx, video); err != nil {
		return false, err
	}
	logger.Info("Research completed", "video_id", id, "sources", len(report.Sources))
	return true, nil
}

// Draft turns the stored research into post drafts.
func (p *Processor) Draft(ctx context.Context, id uint) (err error) {
	video, err := p.videos.FindByID(ctx, id)
	if err != nil {
		return err
	}
	defer observe("draft", time.Now(), &err)
	logger.Info("Starting drafting", "video_id", id)

	drafts, err := p.drafter.Draft(ctx, video.Report(), video.Transcription)
	if err != nil {
		p.fail(ctx, video, models.StatusError, err)
		return err
	}

	video.Drafts = drafts
	video.Status = models.StatusCompleted
	video.LastError = ""
	if err := p.videos.Save(ctx, video); err != nil {
		return err
	}
	logger.Info("Drafting completed", "video_id", id, "drafts", len(drafts))
	return nil
}

func (p *Processor) fail(ctx context.Context, video *models.Video, status models.VideoStatus, cause error) {
	logger.Error("Workflow stage failed", "video_id", video.ID, "status", status, "error", cause)
	video.Status = status
	video.LastError = cause.Error()
	// The failure is recorded even when cause is ctx ending.
	if err := p.videos.Save(context.WithoutCancel(ctx), video); err != nil {
		logger.Error("Failed to record stage failure", "video_id", video.ID, "error", err)
	}
}

func observe(stage string, start time.Time, errp *error) {
	result := "ok"
	if *errp != nil {
		result = "error"
	}
	metrics.StageRuns.WithLabelValues(stage, result).Inc()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
