package logmail

import (
	"context"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/ports/notify"
)

// Mailer escribe el correo en el log en vez de enviarlo (dev, sin SES).
type Mailer struct {
	log logger.Logger
}

func New(log logger.Logger) *Mailer {
	if log == nil {
		log = logger.Nop()
	}
	return &Mailer{log: log}
}

func (m *Mailer) Send(ctx context.Context, msg notify.Message) error {
	m.log.Info("mail not sent (log mailer)", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Text,
	})
	return nil
}
