package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curvacraft/studio-erp/internal/accounts"
	"github.com/curvacraft/studio-erp/internal/app"
	"github.com/curvacraft/studio-erp/internal/docnum"
	"github.com/curvacraft/studio-erp/internal/enquiries"
	"github.com/curvacraft/studio-erp/internal/invoices"
	"github.com/curvacraft/studio-erp/internal/observability"
	"github.com/curvacraft/studio-erp/internal/platform/cache"
	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/progress"
	"github.com/curvacraft/studio-erp/internal/projects"
	"github.com/curvacraft/studio-erp/internal/purchaseorders"
	"github.com/curvacraft/studio-erp/internal/quotations"
	"github.com/curvacraft/studio-erp/internal/reports"
	"github.com/curvacraft/studio-erp/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDialTimeout)
	if err != nil {
		logger.Warn("redis unavailable, dashboard caching disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	gen := docnum.NewGenerator(pool)
	if cfg.SequenceYear > 0 && cfg.SequenceSeed > 0 {
		if err := gen.Seed(ctx, docnum.DocInvoice, cfg.SequenceYear, cfg.SequenceSeed); err != nil {
			logger.Error("seed invoice sequence", slog.Any("error", err))
			os.Exit(1)
		}
	}

	auditLogger := shared.NewAuditLogger(pool)

	enquiryRepo := enquiries.NewRepository(pool)
	enquiryService := enquiries.NewService(enquiryRepo, logger)
	enquiryHandler := enquiries.NewHandler(logger, enquiryService)

	quotationRepo := quotations.NewRepository(pool, gen)
	quotationService := quotations.NewService(quotationRepo, enquiryService, logger)
	quotationHandler := quotations.NewHandler(logger, quotationService)

	projectRepo := projects.NewRepository(pool)
	projectService := projects.NewService(projectRepo, quotationService, logger)
	projectHandler := projects.NewHandler(logger, projectService)

	invoiceRepo := invoices.NewRepository(pool, gen)
	invoiceService := invoices.NewService(invoiceRepo, logger)
	invoiceService.SetAudit(auditLogger)
	invoiceHandler := invoices.NewHandler(logger, invoiceService)

	accountsRepo := accounts.NewRepository(pool, gen)
	var dashboardCache accounts.Cache
	if redisClient != nil {
		dashboardCache = accounts.NewRedisCache(redisClient)
	}
	accountsService := accounts.NewService(accountsRepo, dashboardCache, logger)
	accountsService.SetAudit(auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	poRepo := purchaseorders.NewRepository(pool, gen)
	poService := purchaseorders.NewService(poRepo, logger)
	poHandler := purchaseorders.NewHandler(logger, poService)

	progressRepo := progress.NewRepository(pool)
	progressService := progress.NewService(progressRepo, logger)
	progressHandler := progress.NewHandler(logger, progressService)

	reportRepo := reports.NewRepository(pool)
	reportService := reports.NewService(reportRepo, logger)
	reportHandler := reports.NewHandler(logger, reportService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		EnquiryHandler:       enquiryHandler,
		QuotationHandler:     quotationHandler,
		ProjectHandler:       projectHandler,
		InvoiceHandler:       invoiceHandler,
		AccountsHandler:      accountsHandler,
		PurchaseOrderHandler: poHandler,
		ProgressHandler:      progressHandler,
		ReportHandler:        reportHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
