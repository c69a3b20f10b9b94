package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/devcosts/devcosts/internal/clock"
	"github.com/devcosts/devcosts/internal/notify/pdf"
	usagedomain "github.com/devcosts/devcosts/internal/usagerecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary is the month-to-date spend view backing the dashboard.
type Summary struct {
	Month            string                     `json:"month"`
	MonthToDateCents int64                      `json:"month_to_date_cents"`
	ProjectedCents   int64                      `json:"projected_cents"`
	Providers        []usagedomain.ProviderTotal `json:"providers"`
	Daily            []usagedomain.DailyTotal    `json:"daily"`
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	UsageRepo usagedomain.Repository
	PDF       pdf.Provider
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	usageRepo usagedomain.Repository
	pdf       pdf.Provider
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("dashboard.service"),
		clock:     p.Clock,
		usageRepo: p.UsageRepo,
		pdf:       p.PDF,
	}
}

func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	now := s.clock.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	today := now.Format("2006-01-02")

	total, err := s.usageRepo.SumRange(ctx, s.db, userID, monthStart.Format("2006-01-02"), today)
	if err != nil {
		return nil, err
	}
	providers, err := s.usageRepo.SumByProvider(ctx, s.db, userID, monthStart.Format("2006-01-02"), today)
	if err != nil {
		return nil, err
	}
	daily, err := s.usageRepo.SumByDay(ctx, s.db, userID, monthStart.Format("2006-01-02"), today)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Month:            now.Format("2006-01"),
		MonthToDateCents: total,
		ProjectedCents:   project(total, now),
		Providers:        providers,
		Daily:            daily,
	}, nil
}

// Report renders the current month's spend summary as a PDF.
func (s *Service) Report(ctx context.Context, userID string) (io.Reader, error) {
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReportData{
		Title:       "DevCosts Spend Report",
		Period:      summary.Month,
		GeneratedAt: s.clock.Now().UTC().Format(time.RFC3339),
		Total:       formatCurrency(summary.MonthToDateCents),
	}
	for _, line := range summary.Providers {
		share := "0%"
		if summary.MonthToDateCents > 0 {
			share = fmt.Sprintf("%.1f%%", float64(line.AmountCents)/float64(summary.MonthToDateCents)*100)
		}
		data.Providers = append(data.Providers, pdf.ProviderLine{
			Provider: line.Provider,
			Amount:   formatCurrency(line.AmountCents),
			Share:    share,
		})
	}
	for _, line := range summary.Daily {
		data.Days = append(data.Days, pdf.DayLine{
			Date:   line.Date,
			Amount: formatCurrency(line.AmountCents),
		})
	}

	return s.pdf.GenerateSpendReport(ctx, data)
}

// project extrapolates the month-to-date total linearly over the
// remaining days.
func project(totalCents int64, now time.Time) int64 {
	daysElapsed := now.Day()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if daysElapsed == 0 {
		return totalCents
	}
	return totalCents * int64(daysInMonth) / int64(daysElapsed)
}

func formatCurrency(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
