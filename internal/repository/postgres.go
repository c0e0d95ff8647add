// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/jobmarket/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAccountNotFound возвращается, если аккаунт не найден.
var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrJobNotFound возвращается, если вакансия не найдена.
	ErrJobNotFound = errors.New("job not found")
	// ErrAlreadyApplied возвращается при повторном отклике на ту же вакансию.
	ErrAlreadyApplied = errors.New("already applied")
	// ErrInsufficientBalance возвращается, если баланса не хватает на отклик.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// DB — общий контракт *pgxpool.Pool и тестовых реализаций пула.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	db          DB
	close       func()
	retryDelays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		db:          pool,
		close:       pool.Close,
		retryDelays: defaultRetryDelays,
	}, nil
}

// NewWithDB создаёт репозиторий поверх уже открытого пула без запуска миграций.
func NewWithDB(db DB, retryDelays ...time.Duration) *PostgresRepository {
	return &PostgresRepository{
		db:          db,
		retryDelays: retryDelays,
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет идемпотентные операции при временных ошибках БД.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(r.retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(r.retryDelays) {
			break
		}

		timer := time.NewTimer(r.retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}

// GetOrCreateAccount возвращает аккаунт по адресу кошелька, создавая его со стартовым балансом.
// Создание выполняется одним upsert-запросом, поэтому одновременные первые обращения
// с одним адресом получают одну и ту же строку.
func (r *PostgresRepository) GetOrCreateAccount(ctx context.Context, walletAddress string) (*model.Account, error) {
	var a model.Account
	err := r.withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO accounts (id, wallet_address, balance) VALUES ($1, $2, $3)
			 ON CONFLICT (wallet_address) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
			 RETURNING id, wallet_address, balance, created_at`,
			uuid.NewString(), walletAddress, model.StartingBalance,
		).Scan(&a.ID, &a.WalletAddress, &a.Balance, &a.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return &a, nil
}

// GetAccountByID возвращает аккаунт по идентификатору.
func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := r.withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, wallet_address, balance, created_at FROM accounts WHERE id = $1`,
			id,
		).Scan(&a.ID, &a.WalletAddress, &a.Balance, &a.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// GetJobByID возвращает вакансию по идентификатору.
func (r *PostgresRepository) GetJobByID(ctx context.Context, id string) (*model.Job, error) {
	var (
		j       model.Job
		jobType string
	)
	err := r.withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, title, description, type, reward, created_at FROM jobs WHERE id = $1`,
			id,
		).Scan(&j.ID, &j.Title, &j.Description, &jobType, &j.Reward, &j.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Type = model.JobType(jobType)
	return &j, nil
}

// ListJobs возвращает вакансии, начиная с самых новых. Пустой jobType означает все типы.
func (r *PostgresRepository) ListJobs(ctx context.Context, jobType model.JobType) ([]model.Job, error) {
	var jobs []model.Job
	err := r.withRetry(ctx, func() error {
		var err error
		jobs, err = r.listJobs(ctx, jobType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *PostgresRepository) listJobs(ctx context.Context, jobType model.JobType) ([]model.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, type, reward, created_at
		 FROM jobs
		 WHERE $1 = '' OR type = $1
		 ORDER BY created_at DESC, id`,
		string(jobType),
	)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		var (
			j       model.Job
			jobType string
		)
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &jobType, &j.Reward, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Type = model.JobType(jobType)
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return jobs, nil
}

// CountJobs возвращает количество вакансий в каталоге.
func (r *PostgresRepository) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := r.withRetry(ctx, func() error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// ApplicationExists сообщает, откликался ли аккаунт на вакансию.
func (r *PostgresRepository) ApplicationExists(ctx context.Context, accountID, jobID string) (bool, error) {
	var exists bool
	err := r.withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM applications WHERE account_id = $1 AND job_id = $2)`,
			accountID, jobID,
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return exists, nil
}

// CreateApplication в одной транзакции сохраняет отклик и списывает cost токенов с баланса.
// Возвращает баланс после операции. Нарушение уникальности отклика превращается
// в ErrAlreadyApplied, нехватка средств — в ErrInsufficientBalance; в обоих случаях
// транзакция откатывается целиком.
func (r *PostgresRepository) CreateApplication(ctx context.Context, accountID, jobID string, cost int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO applications (account_id, job_id) VALUES ($1, $2)`,
		accountID, jobID,
	)
	if err != nil {
		switch {
		case hasPgCode(err, pgerrcode.UniqueViolation):
			return 0, ErrAlreadyApplied
		case hasPgCode(err, pgerrcode.ForeignKeyViolation):
			return 0, ErrJobNotFound
		}
		return 0, fmt.Errorf("insert application: %w", err)
	}

	var balance int64
	if cost > 0 {
		err = tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance`,
			accountID, cost,
		).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		if err != nil {
			return 0, fmt.Errorf("debit balance: %w", err)
		}
	} else {
		err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
		if err != nil {
			return 0, fmt.Errorf("select balance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if hasPgCode(err, pgerrcode.UniqueViolation) {
			return 0, ErrAlreadyApplied
		}
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return balance, nil
}

// ReseedJobs удаляет все отклики и вакансии и вставляет переданный набор вакансий.
// Всё выполняется в одной транзакции: параллельные читатели видят либо старый,
// либо новый каталог.
func (r *PostgresRepository) ReseedJobs(ctx context.Context, jobs []model.Job) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Отклики ссылаются на вакансии, поэтому удаляются первыми.
	if _, err := tx.Exec(ctx, `DELETE FROM applications`); err != nil {
		return fmt.Errorf("delete applications: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("delete jobs: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"jobs"},
		[]string{"id", "title", "description", "type", "reward", "created_at"},
		pgx.CopyFromSlice(len(jobs), func(i int) ([]any, error) {
			j := jobs[i]
			return []any{j.ID, j.Title, j.Description, string(j.Type), j.Reward, j.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy jobs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
