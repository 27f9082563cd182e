package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/sentiment"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newGormRepo(t *testing.T) *GormMessageRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "messages.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewGormMessageRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func newBadgerDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newBadgerRepo(t *testing.T) *BadgerMessageRepository {
	return NewBadgerMessageRepository(newBadgerDB(t))
}

type repoFactory struct {
	name string
	new  func(t *testing.T) MessageRepository
}

func repoFactories() []repoFactory {
	return []repoFactory{
		{"gorm", func(t *testing.T) MessageRepository { return newGormRepo(t) }},
		{"badger", func(t *testing.T) MessageRepository { return newBadgerRepo(t) }},
	}
}

func TestRepositoryAppendAndList(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			repo := f.new(t)

			empty, err := repo.ListAll(ctx)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			last, err := repo.LastID(ctx)
			require.NoError(t, err)
			assert.Zero(t, last)

			a, err := repo.Append(ctx, "alice", "hello", sentiment.Neutral)
			require.NoError(t, err)
			b, err := repo.Append(ctx, "bob", "great", sentiment.Positive)
			require.NoError(t, err)

			assert.Equal(t, uint64(1), a.ID)
			assert.Equal(t, uint64(2), b.ID)
			assert.Equal(t, time.UTC, a.CreatedAt.Location())
			assert.False(t, b.CreatedAt.Before(a.CreatedAt))

			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "alice", all[0].AuthorID)
			assert.Equal(t, "hello", all[0].Text)
			assert.Equal(t, sentiment.Neutral, all[0].SentimentLabel)
			assert.Equal(t, b.ID, all[1].ID)
			assert.Equal(t, sentiment.Positive, all[1].SentimentLabel)

			last, err = repo.LastID(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(2), last)

			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestRepositoryConcurrentAppendsGetUniqueOrderedIDs(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			repo := f.new(t)

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := repo.Append(ctx, "author", "text", sentiment.Neutral)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, writers)
			for i, m := range all {
				assert.Equal(t, uint64(i+1), m.ID)
				if i > 0 {
					assert.False(t, m.CreatedAt.Before(all[i-1].CreatedAt))
				}
			}
		})
	}
}

func TestRepositoryFailedAppendConsumesNoID(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			repo := f.new(t)

			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := repo.Append(cancelled, "alice", "lost", sentiment.Neutral)
			require.Error(t, err)

			all, err := repo.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)

			m, err := repo.Append(context.Background(), "alice", "kept", sentiment.Neutral)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), m.ID)
		})
	}
}

func TestCreatedAtNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	check := func(t *testing.T, repo MessageRepository, setNow func(func() time.Time)) {
		setNow(func() time.Time { return base })
		first, err := repo.Append(ctx, "a", "one", sentiment.Neutral)
		require.NoError(t, err)

		setNow(func() time.Time { return base.Add(-time.Hour) })
		second, err := repo.Append(ctx, "a", "two", sentiment.Neutral)
		require.NoError(t, err)

		assert.True(t, first.CreatedAt.Equal(base))
		assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	}

	t.Run("gorm", func(t *testing.T) {
		repo := newGormRepo(t)
		check(t, repo, func(fn func() time.Time) { repo.now = fn })
	})
	t.Run("badger", func(t *testing.T) {
		repo := newBadgerRepo(t)
		check(t, repo, func(fn func() time.Time) { repo.now = fn })
	})
}

func TestCreatedAtHasStoredPrecision(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)

	check := func(t *testing.T, repo MessageRepository, setNow func(func() time.Time)) {
		setNow(func() time.Time { return at })
		m, err := repo.Append(ctx, "a", "one", sentiment.Neutral)
		require.NoError(t, err)
		assert.Equal(t, 123456000, m.CreatedAt.Nanosecond())

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].CreatedAt.Equal(m.CreatedAt))
	}

	t.Run("gorm", func(t *testing.T) {
		repo := newGormRepo(t)
		check(t, repo, func(fn func() time.Time) { repo.now = fn })
	})
	t.Run("badger", func(t *testing.T) {
		repo := newBadgerRepo(t)
		check(t, repo, func(fn func() time.Time) { repo.now = fn })
	})
}

func TestBadgerPingFailsWhenClosed(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	repo := NewBadgerMessageRepository(db)
	require.NoError(t, db.Close())

	assert.Error(t, repo.Ping(context.Background()))
	_, err = repo.Append(context.Background(), "a", "b", sentiment.Neutral)
	assert.Error(t, err)
}

var _ MessageRepository = (*GormMessageRepository)(nil)
var _ MessageRepository = (*BadgerMessageRepository)(nil)
var _ MessageRepository = (*CachedMessageRepository)(nil)

// countingRepository records how often ListAll reaches the underlying store.
type countingRepository struct {
	MessageRepository
	mu    sync.Mutex
	lists int
}

func (c *countingRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.MessageRepository.ListAll(ctx)
}
