package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/mq"
	"github.com/hope-foundation/apiserver/types"
)

// ContactMailer delivers contact submissions to the foundation inbox.
type ContactMailer interface {
	Enabled() bool
	SendContact(ctx context.Context, msg types.ContactMessage) error
}

// ContactInput is the contact form payload.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"required,max=10000"`
}

// ContactService forwards contact form submissions. Nothing is stored:
// with a broker the worker mails the message. Without one, or when the
// broker rejects the publish, it is mailed inline when SMTP is configured.
type ContactService struct {
	publisher Publisher
	mailer    ContactMailer
	metrics   *metrics.Metrics
	log       *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewContactService(publisher Publisher, mailer ContactMailer, m *metrics.Metrics, log *slog.Logger) *ContactService {
	return &ContactService{
		publisher: publisher,
		mailer:    mailer,
		metrics:   m,
		log:       log,
		validate:  newValidator(),
		now:       time.Now,
	}
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput) error {
	const op = "services.ContactService.Submit"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}

	msg := types.ContactMessage{
		Name:        in.Name,
		Email:       in.Email,
		Subject:     in.Subject,
		Message:     in.Message,
		SubmittedAt: s.now().UTC(),
	}

	var publishErr error
	if s.publisher != nil {
		publishErr = publish(ctx, s.publisher, s.metrics, s.log, mq.TopicContactSubmitted, msg)
		if publishErr == nil {
			return nil
		}
	}

	if s.mailer != nil && s.mailer.Enabled() {
		if err := s.mailer.SendContact(ctx, msg); err != nil {
			attrs := []any{slog.String("op", op), slog.String("email", msg.Email), logging.Err(err)}
			if publishErr != nil {
				attrs = append(attrs, slog.String("publish_error", publishErr.Error()))
			}
			s.log.Error("contact message not delivered", attrs...)
		}
		return nil
	}

	if publishErr != nil {
		s.log.Error("contact message not delivered, no mail fallback",
			slog.String("op", op),
			slog.String("email", msg.Email),
			logging.Err(publishErr),
		)
		return nil
	}
	s.log.Info("contact message received without delivery channel",
		slog.String("op", op),
		slog.String("email", msg.Email),
	)
	return nil
}
