package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/aggregation"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/export"
)

// ReportFilter - параметры отчета. Пустой UserID означает пользователя сессии.
type ReportFilter struct {
	From      *time.Time
	To        *time.Time
	ProjectID string
	UserID    string
	GroupBy   aggregation.GroupBy
	// Location задает календарные границы, по умолчанию UTC
	Location *time.Location
}

type Report struct {
	UserID       string
	GroupBy      aggregation.GroupBy
	Buckets      []aggregation.Bucket
	TotalSeconds int64
	Entries      []*domain.TimeEntry
}

// ExportFile - сериализованный отчет, готовый к отдаче клиенту
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ReportService interface {
	// Generate агрегирует записи, начатые в [From, To]
	Generate(ctx context.Context, sess domain.Session, filter ReportFilter) (*Report, error)

	// Export сериализует записи отчета построчно в указанный формат
	Export(ctx context.Context, sess domain.Session, filter ReportFilter, format export.Format) (*ExportFile, error)

	Dashboard(ctx context.Context, sess domain.Session, now time.Time) (*domain.Dashboard, error)
}
