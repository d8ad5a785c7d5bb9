package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clipthread/internal/auth"
	"clipthread/internal/models"
	"clipthread/internal/queue"
	"clipthread/internal/repository"
	"clipthread/internal/workflow"
	"clipthread/pkg/logger"
)

type VideoService interface {
	List(ctx context.Context) ([]models.Video, error)
	Create(ctx context.Context, video *models.Video) error
	FindByID(ctx context.Context, id uint) (*models.Video, error)
	Delete(ctx context.Context, id uint) error
}

type Workflow interface {
	Enqueue(id uint) (string, error)
	Retry(ctx context.Context, id uint) (workflow.RetryMode, error)
	UpdateResearch(ctx context.Context, id uint, notes string) (*models.Video, error)
}

type TranscriberSettings interface {
	TranscriberURL() string
	SetTranscriberURL(ctx context.Context, raw string) error
}

// Handler serves the REST API.
type Handler struct {
	videos   VideoService
	workflow Workflow
	settings TranscriberSettings
	auth     *auth.Service
}

// NewHandler wires the API. authService may be nil to disable login.
func NewHandler(videos VideoService, wf Workflow, settings TranscriberSettings, authService *auth.Service) *Handler {
	return &Handler{videos: videos, workflow: wf, settings: settings, auth: authService}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateVideoRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type CreateVideoResponse struct {
	Video  *models.Video `json:"video"`
	TaskID string        `json:"task_id"`
}

type RetryResponse struct {
	ID   uint               `json:"id"`
	Mode workflow.RetryMode `json:"mode"`
}

type UpdateResearchRequest struct {
	ResearchNotes string `json:"research_notes" binding:"required"`
}

type TranscriberSettingsRequest struct {
	URL string `json:"url"`
}

type TranscriberSettingsResponse struct {
	URL string `json:"url"`
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "authentication is disabled"})
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	token, expires, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		logger.Warn("Failed login attempt", "username", req.Username, "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// ListVideos godoc
// @Summary List videos, newest first
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Video
// @Router /api/v1/videos [get]
func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videos.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// CreateVideo godoc
// @Summary Submit a video link
// @Description Stores the link and queues transcription, research and drafting.
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateVideoRequest true "Video link"
// @Success 201 {object} CreateVideoResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/videos [post]
func (h *Handler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	video := &models.Video{URL: strings.TrimSpace(req.URL)}
	if err := h.videos.Create(c.Request.Context(), video); err != nil {
		h.internalError(c, err)
		return
	}

	taskID, err := h.workflow.Enqueue(video.ID)
	if err != nil {
		h.queueError(c, err)
		return
	}
	logger.Info("Video submitted", "video_id", video.ID, "task_id", taskID)
	c.JSON(http.StatusCreated, CreateVideoResponse{Video: video, TaskID: taskID})
}

// GetVideo godoc
// @Summary Get a video
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Video ID"
// @Success 200 {object} models.Video
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/videos/{id} [get]
func (h *Handler) GetVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	video, err := h.videos.FindByID(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// DeleteVideo godoc
// @Summary Delete a video
// @Tags videos
// @Security BearerAuth
// @Param id path int true "Video ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/videos/{id} [delete]
func (h *Handler) DeleteVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), id); err != nil {
		h.lookupError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RetryVideo godoc
// @Summary Retry a video
// @Description Re-runs research only when a transcription exists, otherwise the full workflow.
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Video ID"
// @Success 202 {object} RetryResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/videos/{id}/retry [post]
func (h *Handler) RetryVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	mode, err := h.workflow.Retry(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			h.queueError(c, err)
			return
		}
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, RetryResponse{ID: id, Mode: mode})
}

// UpdateResearch godoc
// @Summary Replace research notes and redraft
// @Tags videos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Video ID"
// @Param request body UpdateResearchRequest true "Research notes"
// @Success 202 {object} models.Video
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/videos/{id}/research [put]
func (h *Handler) UpdateResearch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	video, err := h.workflow.UpdateResearch(c.Request.Context(), id, req.ResearchNotes)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			h.queueError(c, err)
			return
		}
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, video)
}

// GetTranscriberSettings godoc
// @Summary Get the transcription worker URL
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TranscriberSettingsResponse
// @Router /api/v1/settings/transcriber [get]
func (h *Handler) GetTranscriberSettings(c *gin.Context) {
	c.JSON(http.StatusOK, TranscriberSettingsResponse{URL: h.settings.TranscriberURL()})
}

// UpdateTranscriberSettings godoc
// @Summary Set the transcription worker URL
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TranscriberSettingsRequest true "Worker URL"
// @Success 200 {object} TranscriberSettingsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/settings/transcriber [put]
func (h *Handler) UpdateTranscriberSettings(c *gin.Context) {
	var req TranscriberSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.settings.SetTranscriberURL(c.Request.Context(), req.URL); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, TranscriberSettingsResponse{URL: h.settings.TranscriberURL()})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid video id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) lookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "video not found"})
		return
	}
	h.internalError(c, err)
}

func (h *Handler) queueError(c *gin.Context, err error) {
	logger.Warn("Could not queue task", "error", err)
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	logger.Error("Request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
