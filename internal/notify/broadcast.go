package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// broadcastTimeout bounds one background broadcast.
const broadcastTimeout = 30 * time.Second

// RecipientLister returns every address a broadcast goes to.
type RecipientLister interface {
	ListActiveEmails(ctx context.Context) ([]string, error)
}

// Broadcaster mails a notice to every active account in the background.
type Broadcaster struct {
	mailer     Mailer
	recipients RecipientLister
	logger     *zap.Logger
	timeout    time.Duration
}

// NewBroadcaster returns a Broadcaster. logger may be nil.
func NewBroadcaster(mailer Mailer, recipients RecipientLister, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{mailer: mailer, recipients: recipients, logger: logger, timeout: broadcastTimeout}
}

// BroadcastAsync sends in a goroutine detached from the request context. The returned
// channel is closed when the broadcast finishes; callers normally ignore it.
func (b *Broadcaster) BroadcastAsync(subject, body string) <-chan struct{} {
	done := make(chan struct{})
	if b == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		b.broadcast(ctx, subject, body)
	}()
	return done
}

func (b *Broadcaster) broadcast(ctx context.Context, subject, body string) {
	emails, err := b.recipients.ListActiveEmails(ctx)
	if err != nil {
		b.logger.Warn("notify: broadcast recipients", zap.Error(err))
		return
	}
	failed := 0
	for i, to := range emails {
		if ctx.Err() != nil {
			b.logger.Warn("notify: broadcast timed out", zap.Int("remaining", len(emails)-i))
			return
		}
		if err := b.mailer.Send(ctx, to, subject, body); err != nil {
			failed++
		}
	}
	if failed > 0 {
		b.logger.Warn("notify: broadcast partially failed", zap.Int("failed", failed), zap.Int("total", len(emails)))
	}
}
