package email

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"TripWatch/config"
	"TripWatch/pkg/logger"
)

// Client 邮件客户端接口
type Client interface {
	// Send 发送一封纯文本邮件
	Send(ctx context.Context, to, subject, body string) error
}

var (
	emailClient Client
	emailOnce   sync.Once
	emailErr    error
)

// Init 初始化邮件客户端
func Init() error {
	emailOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.EmailProvider {
		case "smtp":
			emailClient = NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
		case "mock":
			emailClient = NewMockClient()
		default:
			emailErr = fmt.Errorf("unsupported email provider: %s", cfg.EmailProvider)
		}

		if emailErr != nil {
			logger.Logger.Error("Failed to initialize email client", zap.Error(emailErr))
			return
		}

		logger.Logger.Info("Email client initialized successfully",
			zap.String("provider", cfg.EmailProvider),
		)
	})

	return emailErr
}

func GetClient() Client {
	if emailClient == nil {
		panic("Email client not initialized, call email.Init() first")
	}
	return emailClient
}
