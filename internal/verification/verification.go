// Package verification выдаёт и проверяет одноразовые коды подтверждения email.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL — время жизни кода по умолчанию.
const DefaultTTL = 10 * time.Minute

const codeDigits = 6

// ErrCodeNotFound возвращается хранилищем, если кода для получателя нет или он истёк.
var ErrCodeNotFound = errors.New("verification code not found")

// Store хранит коды с ограниченным временем жизни, по одному на получателя.
type Store interface {
	Save(ctx context.Context, recipient, code string, ttl time.Duration) error
	Get(ctx context.Context, recipient string) (string, error)
	// Delete удаляет код и сообщает, был ли он удалён этим вызовом.
	Delete(ctx context.Context, recipient string) (bool, error)
}

// Sender доставляет код получателю.
type Sender interface {
	Send(ctx context.Context, recipient, code string) error
}

// Service выдаёт и проверяет коды подтверждения.
type Service struct {
	store  Store
	sender Sender
	ttl    time.Duration
}

// NewService создаёт сервис кодов подтверждения.
func NewService(store Store, sender Sender, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:  store,
		sender: sender,
		ttl:    ttl,
	}
}

// Send генерирует новый код для получателя, заменяя предыдущий, и отправляет его.
func (s *Service) Send(ctx context.Context, recipient string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.store.Save(ctx, recipient, code, s.ttl); err != nil {
		return fmt.Errorf("save code: %w", err)
	}

	if err := s.sender.Send(ctx, recipient, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}

	return nil
}

// Verify проверяет код. Верный код удаляется и повторно не принимается:
// из одновременных проверок одного кода успешна только та, что удалила его.
func (s *Service) Verify(ctx context.Context, recipient, code string) (bool, error) {
	stored, err := s.store.Get(ctx, recipient)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	deleted, err := s.store.Delete(ctx, recipient)
	if err != nil {
		return false, fmt.Errorf("delete code: %w", err)
	}

	return deleted, nil
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// LogSender записывает факт отправки кода в журнал вместо реальной доставки.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender создаёт отправителя, пишущего в журнал.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send записывает код в журнал.
func (s *LogSender) Send(_ context.Context, recipient, code string) error {
	s.logger.Info("verification code issued", zap.String("recipient", recipient), zap.String("code", code))
	return nil
}
