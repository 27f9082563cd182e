package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chat-sentiment/backend/pkg/kvstore"
	"chat-sentiment/backend/user/models"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, nickname string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Migrate() error {
	return r.db.AutoMigrate(&models.User{})
}

func (r *GormUserRepository) Create(ctx context.Context, nickname string) (models.User, error) {
	user := models.User{Nickname: nickname, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].CreatedAt = users[i].CreatedAt.UTC()
	}
	return users, nil
}

const userPrefix = "user:"

var userSeqKey = []byte("seq:users")

type BadgerUserRepository struct {
	db *badger.DB
	mu sync.Mutex
}

func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

func (r *BadgerUserRepository) Create(ctx context.Context, nickname string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var user models.User
	err := r.db.Update(func(txn *badger.Txn) error {
		seq, err := kvstore.ReadSequence(txn, userSeqKey)
		if err != nil {
			return err
		}
		user = models.User{ID: seq + 1, Nickname: nickname, CreatedAt: time.Now().UTC()}
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := txn.Set(kvstore.Key(userPrefix, user.ID), data); err != nil {
			return err
		}
		return kvstore.WriteSequence(txn, userSeqKey, user.ID)
	})
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *BadgerUserRepository) List(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		return kvstore.ScanPrefix(txn, []byte(userPrefix), func(val []byte) error {
			var u models.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
