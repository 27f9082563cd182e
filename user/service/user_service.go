package service

import (
	"context"
	"strings"

	convservice "chat-sentiment/backend/conversation/service"
	"chat-sentiment/backend/pkg/errors"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/user/models"
	"chat-sentiment/backend/user/repository"

	"github.com/go-playground/validator/v10"
)

type registration struct {
	Nickname string `json:"nickname" validate:"required"`
}

type UserService struct {
	repo     repository.UserRepository
	validate *validator.Validate
	log      *logger.Logger
}

func NewUserService(repo repository.UserRepository, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &UserService{
		repo:     repo,
		validate: convservice.NewValidator(),
		log:      log.WithComponent("users"),
	}
}

// Register stores a nickname. Duplicate nicknames are allowed.
func (s *UserService) Register(ctx context.Context, nickname string) (models.User, error) {
	in := registration{Nickname: strings.TrimSpace(nickname)}
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, convservice.ValidationFailure(err)
	}

	user, err := s.repo.Create(ctx, in.Nickname)
	if err != nil {
		return models.User{}, errors.NewServerError("failed to register user", err)
	}

	logger.FromContext(ctx, s.log).Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewServerError("failed to list users", err)
	}
	return users, nil
}
