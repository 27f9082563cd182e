package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/pkg/kvstore"
	"chat-sentiment/backend/sentiment"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
)

const messagePrefix = "msg:"

var messageSeqKey = []byte("seq:messages")

// BadgerMessageRepository stores messages in an embedded badger database.
// The id sequence and the record are written in the same transaction.
type BadgerMessageRepository struct {
	db  *badger.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewBadgerMessageRepository(db *badger.DB) *BadgerMessageRepository {
	return &BadgerMessageRepository{db: db, now: time.Now}
}

func (r *BadgerMessageRepository) Append(ctx context.Context, authorID, text string, label sentiment.Label) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.Append")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var msg models.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		seq, err := kvstore.ReadSequence(txn, messageSeqKey)
		if err != nil {
			return err
		}

		var lastCreated time.Time
		if seq > 0 {
			var last models.Message
			err := kvstore.Get(txn, kvstore.Key(messagePrefix, seq), func(val []byte) error {
				return json.Unmarshal(val, &last)
			})
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			lastCreated = last.CreatedAt
		}

		msg = models.Message{
			ID:             seq + 1,
			AuthorID:       authorID,
			Text:           text,
			SentimentLabel: label,
			CreatedAt:      monotonicNow(r.now, lastCreated),
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := txn.Set(kvstore.Key(messagePrefix, msg.ID), data); err != nil {
			return err
		}
		return kvstore.WriteSequence(txn, messageSeqKey, msg.ID)
	})
	if err != nil {
		span.RecordError(err)
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	span.SetAttributes(attribute.Int64("message.id", int64(msg.ID)))
	return msg, nil
}

func (r *BadgerMessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	_, span := tracer.Start(ctx, "messages.ListAll")
	defer span.End()

	messages := make([]models.Message, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		return kvstore.ScanPrefix(txn, []byte(messagePrefix), func(val []byte) error {
			var m models.Message
			if err := json.Unmarshal(val, &m); err != nil {
				return err
			}
			m.CreatedAt = m.CreatedAt.UTC()
			messages = append(messages, m)
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (r *BadgerMessageRepository) LastID(_ context.Context) (uint64, error) {
	var id uint64
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		id, err = kvstore.ReadSequence(txn, messageSeqKey)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read last message id: %w", err)
	}
	return id, nil
}

func (r *BadgerMessageRepository) Ping(_ context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}
