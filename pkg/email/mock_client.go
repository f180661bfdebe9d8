package email

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

var errMockFailure = errors.New("mock email send failure (simulated)")

// MockClient keeps every message in memory instead of delivering it.
type MockClient struct {
	config *Config
	logger Logger

	mu   sync.RWMutex
	sent []MockSentEmail
}

type MockSentEmail struct {
	Message *Message  `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	Status  string    `json:"status"` // sent, failed
	Error   string    `json:"error,omitempty"`
}

func NewMockClient(config *Config, logger Logger) *MockClient {
	return &MockClient{
		config: config,
		logger: logger,
	}
}

func (m *MockClient) Send(ctx context.Context, message *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateMessage(message, m.config.DefaultFrom); err != nil {
		return err
	}

	if m.shouldFail() {
		m.record(MockSentEmail{Message: message, SentAt: time.Now(), Status: "failed", Error: errMockFailure.Error()})
		return NewError("send", "mock", errMockFailure)
	}

	m.record(MockSentEmail{Message: message, SentAt: time.Now(), Status: "sent"})
	m.logger.Debug("Mock email sent successfully",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (m *MockClient) ValidateEmail(email string) error {
	return validateAddress(email)
}

func (m *MockClient) Close() error {
	m.logger.Info("Mock email client closed", "total", len(m.SentEmails()))
	return nil
}

func (m *MockClient) SentEmails() []MockSentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]MockSentEmail, len(m.sent))
	copy(emails, m.sent)
	return emails
}

func (m *MockClient) LastSentEmail() *MockSentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.sent) == 0 {
		return nil
	}
	last := m.sent[len(m.sent)-1]
	return &last
}

func (m *MockClient) SetFailRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.MockFailRate = rate
}

func (m *MockClient) shouldFail() bool {
	m.mu.RLock()
	rate := m.config.MockFailRate
	m.mu.RUnlock()

	if rate <= 0 {
		return false
	}
	return rate >= 1 || rand.Float64() < rate
}

func (m *MockClient) record(email MockSentEmail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
}
