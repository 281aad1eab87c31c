package reporting

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	"stockcart/internal/infrastructure/metrics"
	"stockcart/internal/notification"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("daily_report.tmpl").
		Funcs(template.FuncMap{"money": func(d decimal.Decimal) string { return d.StringFixed(2) }}).
		ParseFS(templateFS, "templates/daily_report.tmpl"),
)

type Repository interface {
	OrderedBetween(ctx context.Context, from, to time.Time) ([]domain.CartSnapshot, error)
}

type Service struct {
	repo       Repository
	mailer     notification.Mailer
	adminEmail string
	loc        *time.Location
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewService(repo Repository, mailer notification.Mailer, adminEmail string, loc *time.Location, m *metrics.Metrics, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:       repo,
		mailer:     mailer,
		adminEmail: adminEmail,
		loc:        loc,
		metrics:    m,
		logger:     logger,
	}
}

// Generate aggregates the carts ordered on day's calendar date in the
// service's time zone.
func (s *Service) Generate(ctx context.Context, day time.Time) (*DailyReport, error) {
	local := day.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	carts, err := s.repo.OrderedBetween(ctx, from, to)
	if err != nil {
		s.metrics.ReportsGenerated.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}

	report := Aggregate(from.Format("2006-01-02"), carts)
	s.logger.Info("daily sales report generated",
		zap.String("date", report.Date),
		zap.String("totalRevenue", report.TotalRevenue.StringFixed(2)),
		zap.Int("totalItemsSold", report.TotalItemsSold),
		zap.Int("totalOrders", report.TotalOrders),
	)
	return &report, nil
}

// Send mails the rendered report to the administrator.
func (s *Service) Send(ctx context.Context, report *DailyReport) error {
	var body bytes.Buffer
	if err := reportTemplate.Execute(&body, report); err != nil {
		s.metrics.ReportsGenerated.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("rendering daily report: %w", err)
	}

	err := s.mailer.Send(ctx, notification.Message{
		To:      s.adminEmail,
		Subject: "Daily Sales Report - " + report.Date,
		Body:    body.String(),
	})
	if err != nil {
		s.metrics.ReportsGenerated.WithLabelValues(metrics.OutcomeFailed).Inc()
		return err
	}

	s.metrics.ReportsGenerated.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return nil
}

// Run generates and sends the report for day.
func (s *Service) Run(ctx context.Context, day time.Time) (*DailyReport, error) {
	report, err := s.Generate(ctx, day)
	if err != nil {
		return nil, err
	}
	if err := s.Send(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}
