package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finbase/notifier/pkg/config"
	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/email"
	"github.com/finbase/notifier/pkg/inbox"
	"github.com/finbase/notifier/pkg/logger"
	"github.com/finbase/notifier/pkg/pg"
	"github.com/finbase/notifier/pkg/preferences"
	"github.com/finbase/notifier/pkg/redis"
	"github.com/finbase/notifier/pkg/scheduler"
	"github.com/finbase/notifier/pkg/templates"
	"github.com/finbase/notifier/pkg/webhooks"
)

type appConfig struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	TemplatesPath  string        `env:"TEMPLATES_PATH" envDefault:""`
	InboxRetention time.Duration `env:"INBOX_RETENTION" envDefault:"720h"`
	DevMailDir     string        `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("notifierd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}

	var log *slog.Logger
	if appCfg.Env == "production" {
		log = logger.New(logger.WithProduction("notifierd"))
	} else {
		log = logger.New(logger.WithDevelopment("notifierd"))
	}
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return err
	}
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	catalog := templates.NewCatalog()
	if appCfg.TemplatesPath != "" {
		data, err := os.ReadFile(appCfg.TemplatesPath)
		if err != nil {
			return fmt.Errorf("failed to read template catalog: %w", err)
		}
		if err := catalog.LoadYAML(data); err != nil {
			return err
		}
		log.InfoContext(ctx, "template catalog loaded",
			"path", appCfg.TemplatesPath, "keys", len(catalog.Keys()))
	}

	webhookDispatcher, err := webhooks.NewDispatcher(
		webhooks.NewMemoryRegistry(),
		webhooks.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer webhookDispatcher.Close()

	analyticsStore, err := delivery.NewPGStore(pool)
	if err != nil {
		return err
	}
	tracker, err := delivery.NewTracker(analyticsStore,
		delivery.WithEventSink(webhookDispatcher),
		delivery.WithLogger(log),
	)
	if err != nil {
		return err
	}

	repo, err := scheduler.NewPGStorage(pool)
	if err != nil {
		return err
	}

	var schedCfg scheduler.Config
	if err := config.Load(&schedCfg); err != nil {
		return err
	}
	dispatcher, err := scheduler.NewDispatcher(repo, preferences.NewMemoryStore(), catalog, tracker,
		scheduler.WithPollInterval(schedCfg.PollInterval),
		scheduler.WithLockTimeout(schedCfg.LockTimeout),
		scheduler.WithMaxConcurrent(schedCfg.MaxConcurrent),
		scheduler.WithClaimLimit(schedCfg.ClaimLimit),
		scheduler.WithDispatcherLogger(log),
	)
	if err != nil {
		return err
	}

	emailSender, err := email.NewSender(newMailer(ctx, appCfg, log))
	if err != nil {
		return err
	}
	dispatcher.RegisterSender(emailSender)

	inboxStore, err := inbox.NewRedisStorage(redisClient)
	if err != nil {
		return err
	}
	inboxSender, err := inbox.NewSender(inboxStore, inbox.WithRetention(appCfg.InboxRetention))
	if err != nil {
		return err
	}
	dispatcher.RegisterSender(inboxSender)

	log.InfoContext(ctx, "notifierd starting",
		"env", appCfg.Env,
		"poll_interval", schedCfg.PollInterval.String(),
		"worker_id", dispatcher.WorkerID().String(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(dispatcher.Run(ctx))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.InfoContext(context.Background(), "notifierd stopped")
	return nil
}

// newMailer picks the Postmark mailer when tokens are configured and falls
// back to the file-writing dev mailer otherwise.
func newMailer(ctx context.Context, appCfg appConfig, log *slog.Logger) email.Mailer {
	var emailCfg email.Config
	if err := config.Load(&emailCfg); err == nil && emailCfg.PostmarkServerToken != "" {
		mailer, err := email.NewPostmarkMailer(emailCfg)
		if err == nil {
			return mailer
		}
		log.WarnContext(ctx, "postmark mailer unavailable, using dev mailer", "error", err)
	}
	return email.NewDevMailer(appCfg.DevMailDir)
}
