package models

import (
	"time"

	"gorm.io/gorm"
)

type SwitchEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Trigger    string         `gorm:"not null;index" json:"trigger"` // "auto" or "manual"
	TargetName string         `gorm:"index" json:"target_name"`
	Success    bool           `gorm:"not null;default:false" json:"success"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type TargetSummary struct {
	TargetName   string  `json:"target_name"`
	SwitchCount  int     `json:"switch_count"`
	SuccessCount int     `json:"success_count"`
	SuccessRate  float64 `json:"success_rate,omitempty"`
}

type SwitchReport struct {
	Since        time.Time       `json:"since"`
	Targets      []TargetSummary `json:"targets"`
	TotalCount   int             `json:"total_count"`
	SuccessCount int             `json:"success_count"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
