// Package model содержит доменные сущности сервиса вакансий.
package model

import (
	"fmt"
	"time"
)

// StartingBalance — баланс токенов, с которым создаётся новый аккаунт.
const StartingBalance int64 = 1000

// StableApplicationCost — стоимость отклика на вакансию типа STABLE в токенах.
const StableApplicationCost int64 = 5

// Account представляет владельца баланса, идентифицируемого адресом кошелька.
type Account struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// JobType описывает тип вакансии.
type JobType string

const (
	JobTypeStable    JobType = "STABLE"
	JobTypeFreelance JobType = "FREELANCE"
)

// ApplicationCost возвращает стоимость отклика для вакансии данного типа.
func (t JobType) ApplicationCost() int64 {
	if t == JobTypeStable {
		return StableApplicationCost
	}
	return 0
}

// ParseJobFilter разбирает значение фильтра списка вакансий.
// Пустая строка и "ALL" означают отсутствие фильтра.
func ParseJobFilter(s string) (JobType, error) {
	switch JobType(s) {
	case "", "ALL":
		return "", nil
	case JobTypeStable, JobTypeFreelance:
		return JobType(s), nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// Job описывает вакансию в каталоге.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        JobType   `json:"type"`
	Reward      int64     `json:"reward"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Application фиксирует отклик аккаунта на вакансию.
type Application struct {
	AccountID string
	JobID     string
	CreatedAt time.Time
}

// ApplyResult — результат попытки откликнуться на вакансию.
type ApplyResult struct {
	Success      bool   `json:"success"`
	BalanceAfter int64  `json:"balanceAfter"`
	Message      string `json:"message,omitempty"`
}
