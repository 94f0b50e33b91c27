package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/curvacraft/studio-erp/internal/invoices"
)

// InvoiceSource is the slice of the invoice service the scan needs.
type InvoiceSource interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]invoices.Invoice, error)
	Detail(ctx context.Context, id int64) (*invoices.Detail, error)
}

// Enqueuer submits follow-up tasks produced by the scan.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// OverdueScanJob finds SENT invoices past their due date that still carry an
// outstanding balance and queues a reminder email for each.
type OverdueScanJob struct {
	Invoices InvoiceSource
	Client   Enqueuer
	Logger   *slog.Logger
	To       string

	clock func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler. Reminders go to the
// accounts mailbox.
func NewOverdueScanJob(invoiceSource InvoiceSource, client Enqueuer, logger *slog.Logger, to string) *OverdueScanJob {
	return &OverdueScanJob{
		Invoices: invoiceSource,
		Client:   client,
		Logger:   logger,
		To:       to,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *OverdueScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Invoices == nil || j.Client == nil {
		return errors.New("overdue scan: handler not configured")
	}
	now := j.now()
	logger := j.logger()
	logger.Info("starting overdue invoice scan")

	overdue, err := j.Invoices.ListOverdue(ctx, now)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	printer := message.NewPrinter(language.English)
	queued := 0
	for _, inv := range overdue {
		detail, err := j.Invoices.Detail(ctx, inv.ID)
		if err != nil {
			logger.Warn("load invoice detail", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
			continue
		}
		if detail.AmountDue.Sign() <= 0 {
			continue
		}
		due, _ := detail.AmountDue.Float64()
		daysLate := int(now.Sub(*inv.DueDate).Hours() / 24)
		payload := SendEmailPayload{
			To:      j.To,
			Subject: fmt.Sprintf("Invoice %s is %d days overdue", inv.Number, daysLate),
			Body: printer.Sprintf("Invoice %s was due on %s and still has %.2f outstanding.",
				inv.Number, inv.DueDate.Format("2 January 2006"), due),
		}
		if _, err := j.Client.EnqueueSendEmail(ctx, payload); err != nil {
			logger.Error("enqueue reminder", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
			continue
		}
		queued++
	}

	logger.Info("completed overdue invoice scan",
		slog.Int("overdue", len(overdue)),
		slog.Int("reminders_queued", queued),
		slog.Duration("duration", time.Since(now)),
	)
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
