package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReportData struct {
	Title       string
	Period      string
	GeneratedAt string

	Total string

	Providers []ProviderLine
	Days      []DayLine
}

type ProviderLine struct {
	Provider string
	Amount   string
	Share    string
}

type DayLine struct {
	Date   string
	Amount string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateSpendReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Period: "+data.Period, props.Text{Top: 0}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Top: 5}),
		),
		col.New(6),
	)

	m.AddRow(15,
		text.NewCol(12, "Total spend: "+data.Total, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	// Per-provider breakdown
	m.AddRow(10,
		text.NewCol(6, "Provider", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Share", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range data.Providers {
		m.AddRow(8,
			text.NewCol(6, line.Provider, props.Text{Size: 9}),
			text.NewCol(3, line.Amount, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, line.Share, props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Daily breakdown
	if len(data.Days) > 0 {
		m.AddRow(12,
			text.NewCol(12, "Daily spend", props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Top:   4,
			}),
		)
		m.AddRow(10,
			text.NewCol(6, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(6, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, line := range data.Days {
			m.AddRow(7,
				text.NewCol(6, line.Date, props.Text{Size: 9}),
				text.NewCol(6, line.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate spend report: %w", err)
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
