package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"chat-sentiment/backend/pkg/errors"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/user/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	users []models.User
	err   error
}

func (m *memoryRepository) Create(_ context.Context, nickname string) (models.User, error) {
	if m.err != nil {
		return models.User{}, m.err
	}
	u := models.User{ID: uint64(len(m.users) + 1), Nickname: nickname}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memoryRepository) List(context.Context) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.User{}, m.users...), nil
}

func TestRegisterTrimsNickname(t *testing.T) {
	repo := &memoryRepository{}
	svc := NewUserService(repo, logger.NewNop())

	user, err := svc.Register(context.Background(), "  zeynep ")
	require.NoError(t, err)
	assert.Equal(t, "zeynep", user.Nickname)
	assert.Equal(t, uint64(1), user.ID)
}

func TestRegisterRejectsBlankNickname(t *testing.T) {
	repo := &memoryRepository{}
	svc := NewUserService(repo, logger.NewNop())

	_, err := svc.Register(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, http.StatusBadRequest, errors.GetStatusCode(err))
	assert.Equal(t, "nickname must not be empty", errors.GetErrorMessage(err))
	assert.Empty(t, repo.users)
}

func TestRegisterStoreFailure(t *testing.T) {
	cause := stderrors.New("disk full")
	svc := NewUserService(&memoryRepository{err: cause}, logger.NewNop())

	_, err := svc.Register(context.Background(), "can")
	require.Error(t, err)
	assert.True(t, errors.IsServer(err))
	assert.ErrorIs(t, err, cause)

	_, err = svc.List(context.Background())
	assert.True(t, errors.IsServer(err))
}
