package models

import (
	"time"
)

// Tournament statuses.
const (
	TournamentStatusDraft     = "draft"
	TournamentStatusPublished = "published"
	TournamentStatusFinished  = "finished"
)

// Tournament represents a paid tournament players can register for.
type Tournament struct {
	BaseModel
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Game        string    `json:"game"`
	Rules       string    `json:"rules"`
	EntryFee    float64   `json:"entry_fee"`
	MaxSlots    int       `json:"max_slots"`
	Status      string    `gorm:"default:'draft'" json:"status"`
	StartTime   time.Time `json:"start_time"`
	BannerURL   string    `json:"banner_url"`

	Participations []Participation `json:"participations,omitempty"`
}
