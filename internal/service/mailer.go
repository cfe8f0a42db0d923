package service

import (
	"context"
	"time"

	"github.com/wavelink/authcore/pkg/logger"
	"github.com/wavelink/authcore/pkg/queue"
)

// Email message kinds consumed by the external delivery worker. The core
// decides that and what to send; rendering and SMTP are downstream.
const (
	EmailKindVerification  = "email_verification"
	EmailKindPasswordReset = "password_reset"
)

type EmailMessage struct {
	Kind     string    `json:"kind"`
	To       string    `json:"to"`
	Token    string    `json:"token"`
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	QueuedAt time.Time `json:"queued_at"`
}

// MailerService dispatches email intents onto the outbound queue. It is
// always invoked outside the request transaction: a delivery failure never
// rolls back the operation that asked for the mail.
type MailerService struct {
	publisher *queue.Publisher
}

func NewMailerService(publisher *queue.Publisher) *MailerService {
	return &MailerService{publisher: publisher}
}

func (s *MailerService) SendVerification(to, token, tenantID, userID string) {
	s.dispatch(EmailMessage{
		Kind:     EmailKindVerification,
		To:       to,
		Token:    token,
		TenantID: tenantID,
		UserID:   userID,
	})
}

func (s *MailerService) SendPasswordReset(to, token, tenantID, userID string) {
	s.dispatch(EmailMessage{
		Kind:     EmailKindPasswordReset,
		To:       to,
		Token:    token,
		TenantID: tenantID,
		UserID:   userID,
	})
}

// dispatch publishes with a short retry budget of its own. The caller has
// already committed; nothing here may propagate back.
func (s *MailerService) dispatch(msg EmailMessage) {
	if s.publisher == nil {
		return
	}
	msg.QueuedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = s.publisher.Publish(ctx, msg); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}

	logger.ErrorWithContext(ctx, "Email dispatch abandoned after retries").
		String("kind", msg.Kind).
		String("user_id", msg.UserID).
		Err(err).
		Log()
}
