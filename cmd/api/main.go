package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "p2p-lending-core/internal/adapter/http"
	mw "p2p-lending-core/internal/adapter/middleware"
	"p2p-lending-core/internal/adapter/notifier"
	"p2p-lending-core/internal/adapter/repository/memory"
	"p2p-lending-core/internal/adapter/repository/mysql"
	"p2p-lending-core/internal/config"
	domainReminder "p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/uow"
	"p2p-lending-core/internal/infrastructure/cache"
	"p2p-lending-core/internal/infrastructure/db"
	"p2p-lending-core/internal/infrastructure/logger"
	"p2p-lending-core/internal/infrastructure/ticker"
	"p2p-lending-core/internal/usecase/lifecycle"
	"p2p-lending-core/internal/usecase/matching"
	"p2p-lending-core/internal/usecase/reminder"
	"p2p-lending-core/internal/usecase/review"
	"p2p-lending-core/pkg/clock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.AppName, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, storeName, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	var n domainReminder.Notifier = notifier.NewLogNotifier(log.Named("notifier"))
	if cfg.Twilio.Enabled() {
		n = notifier.NewSMSNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, log.Named("sms"))
	}

	clk := clock.System{}
	wf := review.NewWorkflow(store, clk, cfg.ReviewConfig(), log.Named("review"))
	sched := reminder.NewScheduler(store, n, clk, cfg.ReminderConfig(), log.Named("reminder"))
	coord := lifecycle.NewCoordinator(store, wf, sched, matching.NewEngine(), clk, cfg.LifecycleConfig(), log.Named("lifecycle"))

	tk, err := ticker.New(cfg.TickInterval, log.Named("ticker"))
	if err != nil {
		return err
	}
	if err := tk.Register("lifecycle-tick", func(ctx context.Context) error {
		res, err := coord.Tick(ctx)
		log.Info("tick",
			zap.Int("checked", res.Statuses.Checked),
			zap.Int("overdue", res.Statuses.Overdue),
			zap.Int("defaulted", res.Statuses.Defaulted),
			zap.Int("reminders_due", res.Reminders.Due),
			zap.Int("reminders_sent", res.Reminders.Sent),
			zap.Int("reminders_failed", res.Reminders.Failed),
		)
		return err
	}); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), middleware.RequestID(), requestLogger(log.Named("http")))

	var mutating []echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		mutating = append(mutating, mw.IdempotencyMiddleware(rdb, cfg.IdempTTL(), log.Named("idempotency")))
	} else {
		log.Warn("redis not configured; idempotency middleware disabled")
	}
	httpadp.Register(e, httpadp.NewHandler(coord, storeName, log.Named("http")), mutating...)

	tk.Start()
	defer tk.Stop()

	addr := ":" + cfg.AppPort
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("store", storeName))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, log *zap.Logger) (uow.UnitOfWork, string, error) {
	if !cfg.UseMySQL() {
		log.Warn("mysql not configured; using in-memory store")
		return memory.NewStore(), "memory", nil
	}
	gdb, err := db.OpenGorm(cfg.MySQLDSN(), cfg.SQLLog, log.Named("db"))
	if err != nil {
		return nil, "", err
	}
	if err := mysql.Migrate(gdb); err != nil {
		return nil, "", err
	}
	return mysql.NewGormUoW(gdb), "mysql", nil
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
