package models

import (
	"time"

	"clipthread/internal/drafting"
)

// VideoStatus tracks a video through the transcribe, research and draft stages.
type VideoStatus string

const (
	StatusPending        VideoStatus = "Pending"
	StatusTranscribing   VideoStatus = "Transcribing"
	StatusResearching    VideoStatus = "Researching"
	StatusDrafting       VideoStatus = "Drafting"
	StatusCompleted      VideoStatus = "Completed"
	StatusResearchFailed VideoStatus = "Research_Failed"
	StatusQuotaExceeded  VideoStatus = "Quota_Exceeded"
	StatusError          VideoStatus = "Error"
)

// Terminal reports whether no stage is running for the status.
func (s VideoStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusResearchFailed, StatusQuotaExceeded, StatusError:
		return true
	}
	return false
}

// Video is a submitted short-form video link and everything derived from it.
type Video struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	URL           string            `json:"url" gorm:"not null;index"`
	Status        VideoStatus       `json:"status" gorm:"type:varchar(32);not null;default:Pending;index"`
	Transcription string            `json:"transcription" gorm:"type:text"`
	ResearchNotes string            `json:"research_notes" gorm:"type:text"`
	Drafts        []string          `json:"drafts" gorm:"serializer:json"`
	Sources       []drafting.Source `json:"sources" gorm:"serializer:json"`
	LastError     string            `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Report returns the research stage output stored on the video.
func (v *Video) Report() drafting.ResearchReport {
	return drafting.ResearchReport{Notes: v.ResearchNotes, Sources: v.Sources}
}

// SystemConfig is a persisted key/value setting.
type SystemConfig struct {
	Key       string    `json:"key" gorm:"primaryKey;type:varchar(64)"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyTranscriberURL stores the transcription worker base URL.
const KeyTranscriberURL = "transcriber_url"
