package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"TripWatch/pkg/logger"
)

// SMTPClient 通过 SMTP 投递通知邮件
type SMTPClient struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPClient(host string, port int, username, password, from string) *SMTPClient {
	return &SMTPClient{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (c *SMTPClient) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(msg); err != nil {
		logger.Logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Logger.Debug("Email sent successfully",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	return nil
}
