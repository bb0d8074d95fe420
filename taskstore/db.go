package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aman1195/helium/internal/database"
)

// taskRecord is the relational row shape. Structured fields are stored
// as JSON text so the schema stays identical across sqlite, postgres,
// and mysql. The schema itself is owned by the migration package.
type taskRecord struct {
	ID          string  `gorm:"primaryKey;size:64"`
	SessionID   string  `gorm:"index;size:64"`
	AgentID     string  `gorm:"index;size:64"`
	Type        string  `gorm:"size:64"`
	Status      string  `gorm:"index;size:16"`
	Input       string  `gorm:"type:text"`
	Result      string  `gorm:"type:text"`
	Error       string  `gorm:"type:text"`
	Progress    float64
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Metadata    string `gorm:"type:text"`
}

// TableName implements gorm's table naming.
func (taskRecord) TableName() string { return "async_tasks" }

// DBStore persists tasks in a relational database through GORM.
type DBStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDBStore creates a database-backed task store. The async_tasks
// table must already exist (see internal/migration).
func NewDBStore(db *database.DB, logger *zap.Logger) *DBStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBStore{
		db:     db,
		logger: logger.With(zap.String("component", "task_store_db")),
	}
}

// toRecord converts a Task to its row shape.
func toRecord(task *Task) (*taskRecord, error) {
	rec := &taskRecord{
		ID:          task.ID,
		SessionID:   task.SessionID,
		AgentID:     task.AgentID,
		Type:        task.Type,
		Status:      string(task.Status),
		Progress:    task.Progress,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
	if task.Input != nil {
		data, err := json.Marshal(task.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal task input: %w", err)
		}
		rec.Input = string(data)
	}
	if task.Result != nil {
		data, err := json.Marshal(task.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal task result: %w", err)
		}
		rec.Result = string(data)
	}
	if task.Metadata != nil {
		data, err := json.Marshal(task.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal task metadata: %w", err)
		}
		rec.Metadata = string(data)
	}
	return rec, nil
}

// fromRecord converts a row back to a Task.
func fromRecord(rec *taskRecord) (*Task, error) {
	task := &Task{
		ID:          rec.ID,
		SessionID:   rec.SessionID,
		AgentID:     rec.AgentID,
		Type:        rec.Type,
		Status:      Status(rec.Status),
		Progress:    rec.Progress,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
	}
	if rec.Input != "" {
		if err := json.Unmarshal([]byte(rec.Input), &task.Input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task input: %w", err)
		}
	}
	if rec.Result != "" {
		if err := json.Unmarshal([]byte(rec.Result), &task.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
	}
	if rec.Metadata != "" {
		if err := json.Unmarshal([]byte(rec.Metadata), &task.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task metadata: %w", err)
		}
	}
	return task, nil
}

// SaveTask creates or replaces a task.
func (s *DBStore) SaveTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrInvalidTask
	}

	now := time.Now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	rec, err := toRecord(task)
	if err != nil {
		return err
	}
	if err := s.db.Gorm().WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// GetTask returns a task by ID.
func (s *DBStore) GetTask(ctx context.Context, id string) (*Task, error) {
	var rec taskRecord
	err := s.db.Gorm().WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return fromRecord(&rec)
}

// ListTasks returns tasks matching the filter, newest first.
func (s *DBStore) ListTasks(ctx context.Context, filter Filter) ([]*Task, error) {
	q := s.db.Gorm().WithContext(ctx).Model(&taskRecord{}).Order("created_at DESC")
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.AgentID != "" {
		q = q.Where("agent_id = ?", filter.AgentID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var recs []taskRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	out := make([]*Task, 0, len(recs))
	for i := range recs {
		task, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

// UpdateStatus transitions a task's lifecycle state.
func (s *DBStore) UpdateStatus(ctx context.Context, id string, status Status, result any, errMsg string) error {
	if !status.Valid() {
		return ErrInvalidTask
	}

	return s.db.Gorm().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec taskRecord
		err := tx.First(&rec, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if Status(rec.Status).IsTerminal() {
			return ErrTaskFinished
		}

		task, err := fromRecord(&rec)
		if err != nil {
			return err
		}
		applyTransition(task, status, result, errMsg, time.Now().UTC())

		updated, err := toRecord(task)
		if err != nil {
			return err
		}
		if err := tx.Save(updated).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
}

// DeleteTask removes a task.
func (s *DBStore) DeleteTask(ctx context.Context, id string) error {
	res := s.db.Gorm().WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// RecoverableTasks returns pending and running tasks, oldest first.
func (s *DBStore) RecoverableTasks(ctx context.Context) ([]*Task, error) {
	var recs []taskRecord
	err := s.db.Gorm().WithContext(ctx).
		Where("status IN ?", []string{string(StatusPending), string(StatusRunning)}).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recoverable tasks: %w", err)
	}

	out := make([]*Task, 0, len(recs))
	for i := range recs {
		task, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

// Cleanup deletes terminal tasks older than the duration.
func (s *DBStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := s.db.Gorm().WithContext(ctx).
		Where("status IN ?", []string{string(StatusCompleted), string(StatusFailed), string(StatusCancelled)}).
		Where("updated_at < ?", cutoff).
		Delete(&taskRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up tasks: %w", res.Error)
	}
	removed := int(res.RowsAffected)
	if removed > 0 {
		s.logger.Debug("cleaned up terminal tasks", zap.Int("removed", removed))
	}
	return removed, nil
}

// Stats summarizes the store contents.
func (s *DBStore) Stats(ctx context.Context) (*Stats, error) {
	type row struct {
		Status string
		N      int
	}
	var rows []row
	err := s.db.Gorm().WithContext(ctx).Model(&taskRecord{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	stats := &Stats{ByStatus: make(map[Status]int)}
	for _, r := range rows {
		stats.ByStatus[Status(r.Status)] = r.N
		stats.Total += r.N
	}
	return stats, nil
}

// Ping checks the database connection.
func (s *DBStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database.
func (s *DBStore) Close() error {
	return s.db.Close()
}
