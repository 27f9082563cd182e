package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/sentiment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("chat-sentiment/backend/conversation/repository")

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// Append stores a new message with the next id and the current UTC time.
	// On failure nothing is stored and no id is consumed.
	Append(ctx context.Context, authorID, text string, label sentiment.Label) (models.Message, error)
	// ListAll returns every message ordered by id ascending.
	ListAll(ctx context.Context) ([]models.Message, error)
	// LastID returns the id of the newest message, 0 when empty.
	LastID(ctx context.Context) (uint64, error)
	Ping(ctx context.Context) error
}

type GormMessageRepository struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db, now: time.Now}
}

// Migrate creates or updates the messages table.
func (r *GormMessageRepository) Migrate() error {
	return r.db.AutoMigrate(&models.Message{})
}

func (r *GormMessageRepository) Append(ctx context.Context, authorID, text string, label sentiment.Label) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.Append")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	var msg models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last models.Message
		if err := tx.Order("id DESC").Limit(1).Find(&last).Error; err != nil {
			return err
		}

		msg = models.Message{
			ID:             last.ID + 1,
			AuthorID:       authorID,
			Text:           text,
			SentimentLabel: label,
			CreatedAt:      monotonicNow(r.now, last.CreatedAt),
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		span.RecordError(err)
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	span.SetAttributes(attribute.Int64("message.id", int64(msg.ID)))
	return msg, nil
}

func (r *GormMessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.ListAll")
	defer span.End()

	messages := make([]models.Message, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&messages).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i := range messages {
		messages[i].CreatedAt = messages[i].CreatedAt.UTC()
	}
	return messages, nil
}

func (r *GormMessageRepository) LastID(ctx context.Context) (uint64, error) {
	var id uint64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Select("COALESCE(MAX(id), 0)").Scan(&id).Error
	if err != nil {
		return 0, fmt.Errorf("read last message id: %w", err)
	}
	return id, nil
}

func (r *GormMessageRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// monotonicNow returns the current UTC time, never earlier than last.
// It is cut to microseconds, the finest precision every supported dialect stores.
func monotonicNow(now func() time.Time, last time.Time) time.Time {
	t := now().UTC().Truncate(time.Microsecond)
	if t.Before(last) {
		return last.UTC()
	}
	return t
}
