package email

import (
	"context"
	"errors"
	"sync"
)

type MockMessage struct {
	To      string
	Subject string
	Body    string
}

// MockClient 记录发送内容的邮件客户端 mock，实现 Client 接口
type MockClient struct {
	mu       sync.Mutex
	Messages []MockMessage

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Messages: make([]MockMessage, 0),
	}
}

func (m *MockClient) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages = append(m.Messages, MockMessage{
		To:      to,
		Subject: subject,
		Body:    body,
	})

	if m.FailNext {
		m.FailNext = false
		return errors.New("mock email send failure")
	}

	return nil
}

// MessageCount 返回已记录的邮件数量。
func (m *MockClient) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
