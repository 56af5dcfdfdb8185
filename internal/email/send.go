package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 5 * time.Second

// SendAsync delivers msg to recipient on a detached context so handler
// cancellation cannot abort an in-flight send.
func SendAsync(ctx context.Context, sender EmailSender, recipient string, msg Message, logger *zerolog.Logger) {
	if sender == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || msg.Subject == "" || msg.Body == "" {
		return
	}

	go func() {
		sendCtx, cancel := newEmailContext(ctx, sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send email")
		}
	}()
}
