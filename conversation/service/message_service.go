package service

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/conversation/repository"
	"chat-sentiment/backend/pkg/errors"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/sentiment"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

const undeterminedLanguage = "und"

type submission struct {
	AuthorID string `json:"authorId" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

type MessageService struct {
	repo       repository.MessageRepository
	classifier sentiment.Classifier
	validate   *validator.Validate
	log        *logger.Logger
	ingested   metric.Int64Counter
}

func NewMessageService(repo repository.MessageRepository, classifier sentiment.Classifier, log *logger.Logger) *MessageService {
	return newMessageService(repo, classifier, log, otel.GetMeterProvider())
}

func newMessageService(repo repository.MessageRepository, classifier sentiment.Classifier, log *logger.Logger, mp metric.MeterProvider) *MessageService {
	if log == nil {
		log = logger.GetGlobal()
	}

	ingested, err := mp.Meter("chat-sentiment/backend/conversation").Int64Counter(
		"messages_ingested_total",
		metric.WithDescription("Messages stored, by sentiment label and detected language"),
	)
	if err != nil {
		log.LogError(err, "Failed to create ingestion counter")
	}

	return &MessageService{
		repo:       repo,
		classifier: classifier,
		validate:   NewValidator(),
		log:        log.WithComponent("ingestion"),
		ingested:   ingested,
	}
}

// detectLanguage returns the ISO 639-1 code of text, or "und" when detection
// is unreliable or the language has no two-letter code.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if !info.IsReliable() || code == "" {
		return undeterminedLanguage
	}
	return code
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationFailure converts validator output into a VALIDATION_ERROR.
func ValidationFailure(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError(err.Error())
	}

	fields := lo.Map(verrs, func(fe validator.FieldError, _ int) FieldError {
		return FieldError{Field: fe.Field(), Rule: fe.Tag()}
	})
	names := lo.Map(fields, func(f FieldError, _ int) string { return f.Field })
	return errors.NewValidationError(strings.Join(names, ", ") + " must not be empty").WithDetails(fields)
}

// Submit validates, classifies and stores a message.
// Once validation passes the submission runs to completion even if ctx is cancelled.
func (s *MessageService) Submit(ctx context.Context, authorID, text string) (models.Message, error) {
	in := submission{
		AuthorID: strings.TrimSpace(authorID),
		Text:     strings.TrimSpace(text),
	}
	if err := s.validate.Struct(in); err != nil {
		return models.Message{}, ValidationFailure(err)
	}

	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx, s.log)

	label := s.classifier.Classify(ctx, in.Text)

	msg, err := s.repo.Append(ctx, in.AuthorID, in.Text, label)
	if err != nil {
		return models.Message{}, errors.NewServerError("failed to store message", err)
	}

	lang := detectLanguage(in.Text)
	log.Info("Message stored",
		"message_id", msg.ID,
		"sentiment", string(msg.SentimentLabel),
		"lang", lang,
	)

	if s.ingested != nil {
		s.ingested.Add(ctx, 1, metric.WithAttributes(
			attribute.String("label", string(label)),
			attribute.String("lang", lang),
		))
	}
	return msg, nil
}

// List returns the full message snapshot ordered by id.
func (s *MessageService) List(ctx context.Context) ([]models.Message, error) {
	messages, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.NewServerError("failed to list messages", err)
	}
	return messages, nil
}
