package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aman1195/helium/internal/database"
	"github.com/aman1195/helium/types"
)

var errMissingSessionID = types.NewError(types.ErrInvalidInput, "session id is required")

// messageRecord is the relational row shape for a conversation turn.
// The schema is owned by the migration package.
type messageRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	SessionID string    `gorm:"index;size:64"`
	Role      string    `gorm:"size:16"`
	AgentID   string    `gorm:"size:64"`
	Content   string    `gorm:"type:text"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName implements gorm's table naming.
func (messageRecord) TableName() string { return "conversation_messages" }

// DBStore persists conversation history in a relational database. The
// per-session ring cap is enforced on write, same as the memory store.
type DBStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDBStore creates a database-backed conversation store. The
// conversation_messages table must already exist (see internal/migration).
func NewDBStore(db *database.DB, logger *zap.Logger) *DBStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBStore{
		db:     db,
		logger: logger.With(zap.String("component", "conversation_db")),
	}
}

// Append inserts a turn and trims the session to the ring cap.
func (s *DBStore) Append(ctx context.Context, sessionID string, msg types.Message) error {
	if sessionID == "" {
		return errMissingSessionID
	}

	rec := messageRecord{
		ID:        msg.ID,
		SessionID: sessionID,
		Role:      string(msg.Role),
		AgentID:   msg.AgentID,
		Content:   msg.Content,
		CreatedAt: msg.Timestamp,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if msg.Metadata != nil {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal message metadata: %w", err)
		}
		rec.Metadata = string(data)
	}

	if err := s.db.Gorm().WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return s.trim(ctx, sessionID)
}

// trim deletes the oldest rows beyond the ring cap.
func (s *DBStore) trim(ctx context.Context, sessionID string) error {
	var count int64
	err := s.db.Gorm().WithContext(ctx).Model(&messageRecord{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	excess := int(count) - DefaultRingSize
	if excess <= 0 {
		return nil
	}

	var ids []string
	err = s.db.Gorm().WithContext(ctx).Model(&messageRecord{}).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(excess).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to find messages to trim: %w", err)
	}
	if err := s.db.Gorm().WithContext(ctx).Delete(&messageRecord{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to trim messages: %w", err)
	}
	return nil
}

// History returns the newest messages in chronological order.
func (s *DBStore) History(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	limit = clampLimit(limit)

	var recs []messageRecord
	err := s.db.Gorm().WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Query is newest-first for the LIMIT; callers get chronological.
	out := make([]types.Message, len(recs))
	for i := range recs {
		rec := &recs[len(recs)-1-i]
		msg := types.Message{
			ID:        rec.ID,
			Role:      types.Role(rec.Role),
			AgentID:   rec.AgentID,
			Content:   rec.Content,
			Timestamp: rec.CreatedAt,
		}
		if rec.Metadata != "" {
			if err := json.Unmarshal([]byte(rec.Metadata), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
		}
		out[i] = msg
	}
	return out, nil
}

// Sessions lists the distinct session IDs.
func (s *DBStore) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.Gorm().WithContext(ctx).Model(&messageRecord{}).
		Distinct("session_id").
		Order("session_id ASC").
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Clear removes a session's history.
func (s *DBStore) Clear(ctx context.Context, sessionID string) error {
	err := s.db.Gorm().WithContext(ctx).
		Delete(&messageRecord{}, "session_id = ?", sessionID).Error
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *DBStore) Close() error { return s.db.Close() }
