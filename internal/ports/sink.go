package ports

import (
	"context"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

type ReportSink interface {
	Write(ctx context.Context, report *domain.Report) error
	Name() string
}
