package usecase

import (
	"context"
	"rbac-admin/domain"
	"rbac-admin/pkg/email"
	"rbac-admin/pkg/log"
	"rbac-admin/pkg/utils"
	"time"
)

type Config struct {
	AppName  string
	From     string
	LoginURL string
}

type accountCreatedData struct {
	AppName  string
	Name     string
	Email    string
	Password string
	LoginURL string
	SentAt   string
}

type notificationUsecase struct {
	client   email.Client
	renderer *templateRenderer
	config   Config
	logger   log.Logger
}

// NewNotificationUsecase parses the embedded templates once.
func NewNotificationUsecase(client email.Client, config Config, logger log.Logger) (domain.AccountNotifier, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}
	return &notificationUsecase{
		client:   client,
		renderer: renderer,
		config:   config,
		logger:   logger,
	}, nil
}

func (n *notificationUsecase) AccountCreated(ctx context.Context, user *domain.User, plainPassword string) error {
	rendered, err := n.renderer.Render(domain.EmailCodeAccountCreated, accountCreatedData{
		AppName:  n.config.AppName,
		Name:     user.Name,
		Email:    user.Email,
		Password: plainPassword,
		LoginURL: n.config.LoginURL,
		SentAt:   time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return domain.ErrEmailSendFailed.WithWrap(err)
	}

	message := &email.Message{
		From:    n.config.From,
		To:      []string{user.Email},
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
		Tags:    map[string]string{"code": string(domain.EmailCodeAccountCreated)},
	}
	if err := n.client.Send(ctx, message); err != nil {
		return domain.ErrEmailSendFailed.WithWrap(err)
	}

	n.logger.InfoContext(ctx, "Account created email sent",
		log.Int64("user_id", int64(user.ID)),
		log.String("to", utils.MaskEmail(user.Email)),
		log.String("code", string(domain.EmailCodeAccountCreated)),
	)
	return nil
}
