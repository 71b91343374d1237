package notifier

import "context"

// Noop discards all mail. Used when no mail API is configured and in tests.
type Noop struct{}

// Send does nothing.
func (Noop) Send(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}
