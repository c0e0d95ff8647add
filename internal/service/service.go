// Package service реализует бизнес-логику сервиса вакансий.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/jobmarket/internal/metrics"
	"github.com/mmeshcher/jobmarket/internal/model"
	"github.com/mmeshcher/jobmarket/internal/repository"
)

// DefaultReseedCount — размер каталога, создаваемого при пересоздании.
const DefaultReseedCount = 100

// Сообщения мягких отказов при отклике.
const (
	MessageAlreadyApplied      = "You have already applied to this job."
	MessageInsufficientBalance = "Insufficient token balance."
)

// ErrConnectFailed возвращается при сбое хранилища во время подключения аккаунта.
var (
	ErrConnectFailed = errors.New("failed to connect")
	// ErrApplyFailed возвращается при сбое хранилища во время отклика.
	ErrApplyFailed = errors.New("failed to apply")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetOrCreateAccount(ctx context.Context, walletAddress string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetJobByID(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, jobType model.JobType) ([]model.Job, error)
	CountJobs(ctx context.Context) (int64, error)
	ApplicationExists(ctx context.Context, accountID, jobID string) (bool, error)
	CreateApplication(ctx context.Context, accountID, jobID string, cost int64) (int64, error)
	ReseedJobs(ctx context.Context, jobs []model.Job) error
}

// Service содержит бизнес-логику сервиса вакансий.
type Service struct {
	repo   Repository
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:    time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ConnectAccount возвращает аккаунт кошелька, создавая его при первом обращении.
func (s *Service) ConnectAccount(ctx context.Context, walletAddress string) (*model.Account, error) {
	a, err := s.repo.GetOrCreateAccount(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	return a, nil
}

// GetAccount возвращает аккаунт по идентификатору или nil, если его нет.
func (s *Service) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	a, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListJobs возвращает вакансии, начиная с самых новых. Пустой jobType означает все типы.
func (s *Service) ListJobs(ctx context.Context, jobType model.JobType) ([]model.Job, error) {
	return s.repo.ListJobs(ctx, jobType)
}

// Apply откликает аккаунт на вакансию.
//
// Отсутствие вакансии или аккаунта возвращается как ошибка. Повторный отклик и
// нехватка баланса — ожидаемые исходы и возвращаются как ApplyResult с Success=false
// и текущим балансом. Отклик на STABLE-вакансию списывает StableApplicationCost
// атомарно с созданием отклика.
func (s *Service) Apply(ctx context.Context, accountID, jobID string) (*model.ApplyResult, error) {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, applyError(err)
	}

	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, applyError(err)
	}

	applied, err := s.repo.ApplicationExists(ctx, accountID, jobID)
	if err != nil {
		return nil, applyError(err)
	}
	if applied {
		metrics.RecordApply(metrics.OutcomeAlreadyApplied)
		return alreadyApplied(account.Balance), nil
	}

	cost := job.Type.ApplicationCost()
	if account.Balance < cost {
		metrics.RecordApply(metrics.OutcomeInsufficientBalance)
		return insufficientBalance(account.Balance), nil
	}

	balance, err := s.repo.CreateApplication(ctx, accountID, jobID, cost)
	switch {
	case err == nil:
		metrics.RecordApply(metrics.OutcomeApplied)
		return &model.ApplyResult{Success: true, BalanceAfter: balance}, nil
	case errors.Is(err, repository.ErrAlreadyApplied):
		// Параллельный отклик успел закоммитить раньше.
		current, err := s.repo.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, applyError(err)
		}
		metrics.RecordApply(metrics.OutcomeAlreadyApplied)
		return alreadyApplied(current.Balance), nil
	case errors.Is(err, repository.ErrInsufficientBalance):
		current, err := s.repo.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, applyError(err)
		}
		metrics.RecordApply(metrics.OutcomeInsufficientBalance)
		return insufficientBalance(current.Balance), nil
	default:
		return nil, applyError(err)
	}
}

// applyError учитывает исход неудачного отклика. Журналирование сбоев выполняет вызывающий слой.
func applyError(err error) error {
	if errors.Is(err, repository.ErrJobNotFound) || errors.Is(err, repository.ErrAccountNotFound) {
		metrics.RecordApply(metrics.OutcomeNotFound)
		return err
	}
	metrics.RecordApply(metrics.OutcomeError)
	return fmt.Errorf("%w: %w", ErrApplyFailed, err)
}

func alreadyApplied(balance int64) *model.ApplyResult {
	return &model.ApplyResult{
		Success:      false,
		BalanceAfter: balance,
		Message:      MessageAlreadyApplied,
	}
}

func insufficientBalance(balance int64) *model.ApplyResult {
	return &model.ApplyResult{
		Success:      false,
		BalanceAfter: balance,
		Message:      MessageInsufficientBalance,
	}
}

// ReseedJobs удаляет все отклики и вакансии и создаёт count новых вакансий.
// При count <= 0 используется DefaultReseedCount.
func (s *Service) ReseedJobs(ctx context.Context, count int) ([]model.Job, error) {
	if count <= 0 {
		count = DefaultReseedCount
	}

	s.mu.Lock()
	jobs := GenerateJobs(count, s.rng, s.now())
	s.mu.Unlock()

	if err := s.repo.ReseedJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("reseed jobs: %w", err)
	}

	metrics.RecordReseed()
	s.logger.Info("job catalog reseeded", zap.Int("count", len(jobs)))

	return jobs, nil
}

// EnsureCatalog заполняет каталог, если в нём нет ни одной вакансии.
func (s *Service) EnsureCatalog(ctx context.Context) error {
	n, err := s.repo.CountJobs(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = s.ReseedJobs(ctx, DefaultReseedCount)
	return err
}
