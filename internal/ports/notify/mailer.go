package notify

import "context"

type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer envía correos transaccionales (reset de password, etc.).
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
