package email

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESClient struct {
	client *ses.Client
	config *Config
	logger Logger
}

// NewSESClient creates an AWS SES client and checks that the account is reachable.
func NewSESClient(ctx context.Context, emailConfig *Config, logger Logger) (*SESClient, error) {
	if emailConfig.SESAccessKey == "" || emailConfig.SESSecretKey == "" {
		return nil, NewError("create_ses_client", "ses", ErrProviderNotConfigured)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(emailConfig.SESRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			emailConfig.SESAccessKey,
			emailConfig.SESSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, NewError("create_ses_config", "ses", err)
	}

	client := &SESClient{
		client: ses.NewFromConfig(cfg),
		config: emailConfig,
		logger: logger,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.client.GetSendQuota(pingCtx, &ses.GetSendQuotaInput{}); err != nil {
		return nil, NewError("ping", "ses", err)
	}
	return client, nil
}

func (s *SESClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, s.config.DefaultFrom); err != nil {
		return err
	}

	input := s.buildInput(message)
	err := withRetry(ctx, s.config, s.logger, func() error {
		_, err := s.client.SendEmail(ctx, input)
		return err
	})
	if err != nil {
		return NewError("send", "ses", err)
	}

	s.logger.Debug("Email sent successfully via SES",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (s *SESClient) ValidateEmail(email string) error {
	return validateAddress(email)
}

func (s *SESClient) Close() error {
	s.logger.Info("SES client closed")
	return nil
}

func (s *SESClient) buildInput(message *Message) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source: aws.String(fromAddress(message.From, s.config.DefaultFrom)),
		Destination: &types.Destination{
			ToAddresses: message.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(message.Subject)},
			Body:    &types.Body{},
		},
	}
	if message.Text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(message.Text)}
	}
	if message.HTML != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(message.HTML)}
	}
	if message.ReplyTo != "" {
		input.ReplyToAddresses = []string{message.ReplyTo}
	}
	if s.config.SESConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.config.SESConfigurationSet)
	}
	for name, value := range message.Tags {
		input.Tags = append(input.Tags, types.MessageTag{Name: aws.String(name), Value: aws.String(value)})
	}
	return input
}
