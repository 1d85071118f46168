package services

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"github.com/chachabrian/courier-backend/internal/config"
)

const charset = "UTF-8"

// sesAPI is the subset of the SES client the mailer uses.
type sesAPI interface {
	SendEmailWithContext(ctx aws.Context, input *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error)
}

// SESMailer delivers mail through Amazon SES.
type SESMailer struct {
	from   string
	client sesAPI
}

func NewSESMailer(cfg config.MailConfig) (*SESMailer, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &SESMailer{from: cfg.From, client: ses.New(sess)}, nil
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if m.from == "" {
		return fmt.Errorf("email configuration not set")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", companyName, m.from)),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(msg.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.HTML)},
				Text: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Text)},
			},
		},
	}

	out, err := m.client.SendEmailWithContext(ctx, input)
	if err != nil {
		log.Printf("Failed to send email via SES: %v", err)
		return err
	}

	log.Printf("Successfully sent email %q to %s (message id %s)", msg.Subject, msg.To, aws.StringValue(out.MessageId))
	return nil
}
