// Package notify sends email notifications when ingestion jobs finish.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Notifier informs a user about a finished ingestion job.
type Notifier interface {
	JobCompleted(ctx context.Context, email, fileName string) error
	JobFailed(ctx context.Context, email, fileName, reason string) error
}

// EmailNotifier sends notifications through the Resend API.
type EmailNotifier struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewEmailNotifier creates a Resend-backed notifier.
func NewEmailNotifier(apiKey, from string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// JobCompleted tells the user a statement is ready for review.
func (n *EmailNotifier) JobCompleted(ctx context.Context, email, fileName string) error {
	return n.send(ctx, email,
		fmt.Sprintf("Statement %q is ready for review", fileName),
		fmt.Sprintf("<p>We finished reading <strong>%s</strong>. Open ledgerlens to review and confirm the parsed expenses.</p>", fileName),
	)
}

// JobFailed tells the user a statement could not be processed.
func (n *EmailNotifier) JobFailed(ctx context.Context, email, fileName, reason string) error {
	return n.send(ctx, email,
		fmt.Sprintf("Statement %q could not be processed", fileName),
		fmt.Sprintf("<p>Processing <strong>%s</strong> failed: %s.</p><p>You can delete the task and re-upload the file.</p>", fileName, reason),
	)
}

func (n *EmailNotifier) send(ctx context.Context, email, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{email},
		Subject: subject,
		Html:    html,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	n.logger.Debug("notification email sent",
		slog.String("email_id", sent.Id),
		slog.String("subject", subject),
	)
	return nil
}

// NopNotifier discards notifications; used when email is not configured.
type NopNotifier struct{}

func (NopNotifier) JobCompleted(context.Context, string, string) error    { return nil }
func (NopNotifier) JobFailed(context.Context, string, string, string) error { return nil }
