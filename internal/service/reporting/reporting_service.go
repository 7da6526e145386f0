package reporting

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/domain/models"
)

const (
	dateLayout       = "2006-01-02 15:04"
	reportWriteRange = "Reports!A:E"
)

// Inventory is the read side of the record store needed for reports.
type Inventory interface {
	Path() string
	List() iter.Seq[models.Product]
}

// Archive stores full reports.
type Archive interface {
	SaveStockReport(ctx context.Context, report models.StockReport) error
}

// SheetWriter appends one row per report.
type SheetWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Notifier pushes the formatted report to an operator.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Option configures optional report sinks.
type Option func(*Service)

// WithArchive archives every published report.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithSheet appends a summary row for every published report.
func WithSheet(w SheetWriter) Option {
	return func(s *Service) { s.sheet = w }
}

// WithNotifier sends every published report to recipient.
func WithNotifier(n Notifier, recipient string) Option {
	return func(s *Service) {
		s.notifier = n
		s.recipient = recipient
	}
}

// Service computes stock summaries and publishes them to the configured sinks.
type Service struct {
	inventory Inventory
	threshold int
	logger    *zap.Logger

	archive   Archive
	sheet     SheetWriter
	notifier  Notifier
	recipient string
}

// NewService wires a new reporting service instance.
func NewService(inventory Inventory, lowStockThreshold int, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{inventory: inventory, threshold: lowStockThreshold, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasSinks reports whether Publish has anywhere to send reports.
func (s *Service) HasSinks() bool {
	return s.archive != nil || s.sheet != nil || s.notifier != nil
}

// Generate aggregates the current inventory.
func (s *Service) Generate(now time.Time) models.StockReport {
	report := models.StockReport{
		GeneratedAt:       now.UTC(),
		Source:            s.inventory.Path(),
		LowStockThreshold: s.threshold,
		LowStock:          []models.Product{},
	}

	for p := range s.inventory.List() {
		report.Products++
		report.TotalUnits += p.Quantity
		report.TotalValue += p.Value()
		if p.Quantity <= s.threshold {
			report.LowStock = append(report.LowStock, p)
		}
	}

	s.logger.Debug("stock report generated",
		zap.Int("products", report.Products),
		zap.Int("low_stock", len(report.LowStock)))
	return report
}

// Format renders a report for the console or a chat message.
func Format(report models.StockReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock report (%s)\n", report.GeneratedAt.Format(dateLayout))
	if report.Products == 0 {
		b.WriteString("Inventory is empty.")
		return b.String()
	}

	fmt.Fprintf(&b, "Products: %d\nUnits: %d\nStock value: %.2f\n", report.Products, report.TotalUnits, report.TotalValue)
	if len(report.LowStock) == 0 {
		fmt.Fprintf(&b, "No product at or below %d units.", report.LowStockThreshold)
		return b.String()
	}

	fmt.Fprintf(&b, "Low stock (<= %d units):", report.LowStockThreshold)
	for _, p := range report.LowStock {
		fmt.Fprintf(&b, "\n- %s %s: %d", p.ID, p.Name, p.Quantity)
	}
	return b.String()
}

// Publish sends the report to every configured sink. A failing sink does not
// stop the others; all failures are returned joined.
func (s *Service) Publish(ctx context.Context, report models.StockReport) error {
	var errs []error

	if s.archive != nil {
		if err := s.archive.SaveStockReport(ctx, report); err != nil {
			s.logger.Error("failed to archive stock report", zap.Error(err))
			errs = append(errs, fmt.Errorf("archive report: %w", err))
		}
	}

	if s.sheet != nil {
		row := []interface{}{
			report.GeneratedAt.Format(dateLayout),
			report.Products,
			report.TotalUnits,
			report.TotalValue,
			len(report.LowStock),
		}
		if err := s.sheet.WriteRow(ctx, reportWriteRange, row); err != nil {
			s.logger.Error("failed to append stock report row", zap.Error(err))
			errs = append(errs, fmt.Errorf("append report row: %w", err))
		}
	}

	if s.notifier != nil {
		req := models.OutboundMessageRequest{To: s.recipient, Message: Format(report)}
		if err := s.notifier.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send stock report", zap.Error(err))
			errs = append(errs, fmt.Errorf("send report: %w", err))
		}
	}

	if len(errs) == 0 {
		s.logger.Info("stock report published", zap.Int("products", report.Products))
	}
	return errors.Join(errs...)
}
