package sheets

import (
	"context"

	"fintrack/internal/core"
)

// TransactionExporter mirrors transaction changes to an external sheet.
type TransactionExporter interface {
	ExportTransaction(ctx context.Context, action string, t core.Transaction) (rowRef string, err error)
}
