package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridClient struct {
	client *sendgrid.Client
	config *Config
	logger Logger
}

func NewSendGridClient(config *Config, logger Logger) (*SendGridClient, error) {
	if config.SendGridAPIKey == "" {
		return nil, NewError("create_sendgrid_client", "sendgrid", ErrProviderNotConfigured)
	}

	return &SendGridClient{
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
		config: config,
		logger: logger,
	}, nil
}

func (sg *SendGridClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, sg.config.DefaultFrom); err != nil {
		return err
	}

	sgMessage := sg.buildMessage(message)
	err := withRetry(ctx, sg.config, sg.logger, func() error {
		response, err := sg.client.SendWithContext(ctx, sgMessage)
		if err != nil {
			return err
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return fmt.Errorf("SendGrid API returned status %d: %s", response.StatusCode, response.Body)
		}
		return nil
	})
	if err != nil {
		return NewError("send", "sendgrid", err)
	}

	sg.logger.Debug("Email sent successfully via SendGrid",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (sg *SendGridClient) ValidateEmail(email string) error {
	return validateAddress(email)
}

func (sg *SendGridClient) Close() error {
	sg.logger.Info("SendGrid client closed")
	return nil
}

func (sg *SendGridClient) buildMessage(message *Message) *mail.SGMailV3 {
	sgMessage := mail.NewV3Mail()
	sgMessage.SetFrom(mail.NewEmail(sg.config.FromName, fromAddress(message.From, sg.config.DefaultFrom)))
	sgMessage.Subject = message.Subject

	personalization := mail.NewPersonalization()
	for _, to := range message.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	sgMessage.AddPersonalizations(personalization)

	if message.Text != "" {
		sgMessage.AddContent(mail.NewContent("text/plain", message.Text))
	}
	if message.HTML != "" {
		sgMessage.AddContent(mail.NewContent("text/html", message.HTML))
	}
	if message.ReplyTo != "" {
		sgMessage.SetReplyTo(mail.NewEmail("", message.ReplyTo))
	}
	for name := range message.Tags {
		sgMessage.AddCategories(name)
	}
	return sgMessage
}
