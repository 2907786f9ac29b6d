package sheets

import (
	"context"

	"moneybook/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes a monthly report somewhere outside the store.
	ReportExporter interface {
		// ExportReport returns a reference to the written row.
		ExportReport(ctx context.Context, r core.Report) (rowRef string, err error)
	}
)
