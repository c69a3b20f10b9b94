package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateSpendReport(ctx context.Context, data ReportData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateSpendReport(ctx context.Context, data ReportData) (io.Reader, error) {
	return nil, nil
}
