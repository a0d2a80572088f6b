package ses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"pet-adoption-api/internal/ports/notify"
)

var ErrInvalidMessage = errors.New("invalid mail message")

// API es el subconjunto del cliente SES que usamos (se reemplaza en tests).
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Mailer struct {
	api  API
	from string
}

// New carga credenciales con la cadena por defecto de AWS (env, perfil, rol).
func New(ctx context.Context, region, from string) (*Mailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(ses.NewFromConfig(cfg), from), nil
}

func NewWithAPI(api API, from string) *Mailer {
	return &Mailer{api: api, from: strings.TrimSpace(from)}
}

func (m *Mailer) Send(ctx context.Context, msg notify.Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" || strings.TrimSpace(msg.Subject) == "" {
		return ErrInvalidMessage
	}

	_, err := m.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
