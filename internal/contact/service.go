package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storefront-service/internal/apperr"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Store interface {
	CreateContactMessage(ctx context.Context, m Message) (Message, error)
	ListContactMessages(ctx context.Context, limit, offset int) ([]Message, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Service struct {
	store    Store
	events   EventPublisher
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	publishTimeout time.Duration
}

// NewService wires the contact intake service. events may be nil.
func NewService(store Store, events EventPublisher) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("contact store is nil")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	// report violations by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:    store,
		events:   events,
		validate: v,
		now:      time.Now,
		newID:    uuid.NewString,

		publishTimeout: 2 * time.Second,
	}, nil
}

// Submit validates sub and records it. Every violated field is reported.
func (s *Service) Submit(ctx context.Context, sub Submission) (Message, error) {
	traceID := ctxmanage.GetTraceId(ctx)

	if err := s.validate.Struct(sub); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return Message{}, fmt.Errorf("validate contact submission: %w", err)
		}
		fields := make([]apperr.FieldViolation, 0, len(vErrs))
		for _, vErr := range vErrs {
			fields = append(fields, violation(vErr))
		}
		slog.Info("contact submission rejected", slog.String(logkey.TraceID, traceID), slog.Any("Fields", fields))
		return Message{}, apperr.Validation("Invalid form data", fields...)
	}

	msg := Message{
		ID:        s.newID(),
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.store.CreateContactMessage(ctx, msg)
	if err != nil {
		return Message{}, apperr.Persistence("create contact message", err)
	}
	slog.Info("contact message stored", slog.String(logkey.TraceID, traceID), slog.String("MessageID", created.ID))

	if s.events != nil {
		evt := kafka.ContactReceivedEvent{
			MessageID: created.ID,
			Name:      created.Name,
			Email:     created.Email,
			Subject:   created.Subject,
			CreatedAt: created.CreatedAt,
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()
		if err := s.events.PublishJSON(pctx, kafka.TopicContactReceived, created.ID, evt); err != nil {
			slog.Error("failed to publish contact event", slog.String(logkey.TraceID, traceID),
				slog.String("MessageID", created.ID), slog.String(logkey.ERROR, err.Error()))
		}
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.store.ListContactMessages(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Persistence("list contact messages", err)
	}
	if list == nil {
		list = []Message{}
	}
	return list, nil
}

func violation(fe validator.FieldError) apperr.FieldViolation {
	v := apperr.FieldViolation{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	switch fe.Tag() {
	case "required":
		v.Message = fe.Field() + " is required"
	case "min":
		v.Message = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "email":
		v.Message = "Invalid email address"
	default:
		v.Message = fe.Field() + " is invalid"
	}
	return v
}
