package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/moview/moview/internal/automation"
	"github.com/moview/moview/internal/models"
)

// Repository handles all database operations for switch events and error
// logs. It satisfies automation.Recorder.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordSwitch persists the outcome of one activation attempt.
func (r *Repository) RecordSwitch(trigger string, result automation.ActivationResult) {
	event := &models.SwitchEvent{
		Timestamp: time.Now(),
		Trigger:   trigger,
		Success:   result.Success,
		ErrorKind: result.Error,
	}
	if result.Target != nil {
		event.TargetName = result.Target.Name
	}
	// Best-effort: a persistence failure must never break the trigger path.
	_ = r.Create(event)
}

// RecordError persists a degraded-sensor warning.
func (r *Repository) RecordError(message string) {
	_ = r.CreateErrorLog(&models.ErrorLog{
		Timestamp: time.Now(),
		ErrorMsg:  message,
	})
}

// Create inserts a new switch event into the database
func (r *Repository) Create(event *models.SwitchEvent) error {
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert switch event")
	}
	return nil
}

// GetEventsSince retrieves all switch events since a given time
func (r *Repository) GetEventsSince(since time.Time) ([]*models.SwitchEvent, error) {
	var events []*models.SwitchEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query switch events")
	}

	return events, nil
}

// GetLatest retrieves the most recent switch event, or nil when none exist
func (r *Repository) GetLatest() (*models.SwitchEvent, error) {
	var event models.SwitchEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// GetTargetSummarySince returns per-target switch counts since a given time.
// SQL does the grouping; the caller derives rates.
func (r *Repository) GetTargetSummarySince(since time.Time) ([]models.TargetSummary, error) {
	var summaries []models.TargetSummary

	result := r.db.Model(&models.SwitchEvent{}).
		Select("target_name, COUNT(*) as switch_count, SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_count").
		Where("timestamp >= ?", since).
		Group("target_name").
		Order("switch_count DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query target summary")
	}

	return summaries, nil
}

// DeleteOldEvents deletes events older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.SwitchEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetErrorsSince retrieves error logs since a given time
func (r *Repository) GetErrorsSince(since time.Time) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Where("timestamp >= ?", since).Order("timestamp DESC").Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// ClearAll removes all switch events and error logs
func (r *Repository) ClearAll() error {
	if err := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.SwitchEvent{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear switch events")
	}
	if err := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.ErrorLog{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear error logs")
	}
	return nil
}
