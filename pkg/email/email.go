package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Provider string

const (
	SES      Provider = "ses"
	SendGrid Provider = "sendgrid"
	Mock     Provider = "mock"
)

var (
	ErrInvalidProvider       = errors.New("invalid email provider")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrMissingRecipients     = errors.New("no recipients specified")
	ErrMissingSubject        = errors.New("subject is required")
	ErrMissingContent        = errors.New("email content is required")
	ErrProviderNotConfigured = errors.New("email provider not properly configured")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Error struct {
	Operation string
	Provider  string
	Err       error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("email %s operation failed for provider '%s': %v", e.Operation, e.Provider, e.Err)
	}
	return fmt.Sprintf("email %s operation failed: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(operation, provider string, err error) *Error {
	return &Error{
		Operation: operation,
		Provider:  provider,
		Err:       err,
	}
}

// Logger takes key/value pairs after the message.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

type Client interface {
	Send(ctx context.Context, message *Message) error
	ValidateEmail(email string) error
	Close() error
}

type Message struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	Text    string            `json:"text,omitempty"`
	HTML    string            `json:"html,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type Config struct {
	Provider    string `json:"provider" yaml:"provider"`
	DefaultFrom string `json:"default_from" yaml:"default_from"`
	FromName    string `json:"from_name" yaml:"from_name"`

	// AWS SES settings
	SESRegion           string `json:"ses_region" yaml:"ses_region"`
	SESAccessKey        string `json:"ses_access_key" yaml:"ses_access_key"`
	SESSecretKey        string `json:"ses_secret_key" yaml:"ses_secret_key"`
	SESConfigurationSet string `json:"ses_configuration_set" yaml:"ses_configuration_set"`

	SendGridAPIKey string `json:"sendgrid_api_key" yaml:"sendgrid_api_key"`

	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// MockFailRate is the share of mock sends that fail, between 0 and 1.
	MockFailRate float64 `json:"mock_fail_rate" yaml:"mock_fail_rate"`
}

// New creates the client for config.Provider.
func New(ctx context.Context, config *Config, logger Logger) (Client, error) {
	setDefaults(config)

	switch Provider(config.Provider) {
	case SES:
		client, err := NewSESClient(ctx, config, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SES client: %w", err)
		}
		logger.Info("SES email client created successfully",
			"region", config.SESRegion,
			"default_from", config.DefaultFrom,
		)
		return client, nil
	case SendGrid:
		client, err := NewSendGridClient(config, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SendGrid client: %w", err)
		}
		logger.Info("SendGrid email client created successfully", "default_from", config.DefaultFrom)
		return client, nil
	case Mock:
		logger.Info("Mock email client created successfully", "fail_rate", config.MockFailRate)
		return NewMockClient(config, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, config.Provider)
	}
}

func setDefaults(config *Config) {
	if config.SESRegion == "" {
		config.SESRegion = "us-east-1"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
}

func validateAddress(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func validateMessage(message *Message, defaultFrom string) error {
	if len(message.To) == 0 {
		return ErrMissingRecipients
	}
	if message.Subject == "" {
		return ErrMissingSubject
	}
	if message.Text == "" && message.HTML == "" {
		return ErrMissingContent
	}

	if err := validateAddress(fromAddress(message.From, defaultFrom)); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	for _, to := range message.To {
		if err := validateAddress(to); err != nil {
			return fmt.Errorf("invalid to address %s: %w", to, err)
		}
	}
	return nil
}

func fromAddress(from, defaultFrom string) string {
	if from == "" {
		return defaultFrom
	}
	return from
}

// withRetry calls send up to maxRetries+1 times with a linear backoff.
func withRetry(ctx context.Context, config *Config, logger Logger, send func() error) error {
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.RetryDelay * time.Duration(attempt)):
			}
		}

		if lastErr = send(); lastErr == nil {
			return nil
		}
		logger.Debug("Email send attempt failed",
			"attempt", attempt+1,
			"error", lastErr.Error(),
		)
	}
	return lastErr
}
