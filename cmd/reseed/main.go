// Package main пересоздаёт каталог вакансий в режиме обслуживания, без запуска HTTP-сервера.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/mmeshcher/jobmarket/internal/repository"
	"github.com/mmeshcher/jobmarket/internal/service"
)

type options struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Count       int    `env:"RESEED_COUNT"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	var opts options
	flag.StringVar(&opts.DatabaseURI, "d", "", "database URI")
	flag.IntVar(&opts.Count, "n", service.DefaultReseedCount, "number of jobs to generate")
	flag.Parse()

	// Переменные окружения имеют приоритет над флагами.
	if err := env.Parse(&opts); err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(opts.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, logger)
	defer svc.Close()

	jobs, err := svc.ReseedJobs(ctx, opts.Count)
	if err != nil {
		sugar.Fatalw("reseed error", "error", err.Error())
	}

	sugar.Infow("catalog reseeded", "jobs", len(jobs))
}
