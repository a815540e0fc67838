package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cineops/showtime-api/internal/models"
	appErrors "github.com/cineops/showtime-api/pkg/errors"
	"github.com/cineops/showtime-api/pkg/export"
)

type reportForecastReader interface {
	FindByID(ctx context.Context, id string) (*models.Forecast, error)
}

type reportScheduleReader interface {
	ListByForecast(ctx context.Context, forecastID string) ([]models.ScheduleView, error)
}

type reportPredictionReader interface {
	FindByForecast(ctx context.Context, forecastID string) (*models.PredictionData, error)
}

type reportArchive interface {
	Save(filename string, data []byte) (string, error)
}

// ReportService renders forecast reports and booking exports for download.
// When an archive is configured, every rendered export is also kept on disk.
type ReportService struct {
	forecasts   reportForecastReader
	schedules   reportScheduleReader
	predictions reportPredictionReader
	bookings    *BookingService
	archive     reportArchive
	pdf         *export.PDFExporter
	csv         *export.CSVExporter
	logger      *zap.Logger
}

// NewReportService wires the export endpoints' backend. A nil archive
// disables on-disk copies.
func NewReportService(forecasts reportForecastReader, schedules reportScheduleReader, predictions reportPredictionReader, bookings *BookingService, archive reportArchive, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		forecasts:   forecasts,
		schedules:   schedules,
		predictions: predictions,
		bookings:    bookings,
		archive:     archive,
		pdf:         export.NewPDFExporter(),
		csv:         export.NewCSVExporter(),
		logger:      logger,
	}
}

// keepCopy archives a rendered export best effort: a failed write never
// fails the download itself.
func (s *ReportService) keepCopy(filename string, payload []byte) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(filename, payload); err != nil {
		s.logger.Warn("failed to archive export", zap.String("filename", filename), zap.Error(err))
	}
}

// ForecastReportPDF renders one forecast, its prediction metrics, and its
// generated slate as a PDF document.
func (s *ReportService) ForecastReportPDF(ctx context.Context, forecastID string) ([]byte, string, error) {
	forecast, err := s.forecasts.FindByID(ctx, forecastID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "forecast not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forecast")
	}

	schedules, err := s.schedules.ListByForecast(ctx, forecastID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forecast schedules")
	}

	summary := [][2]string{
		{"Forecast", forecast.Name},
		{"Date range", fmt.Sprintf("%s to %s", forecast.DateRangeStart.Format("2006-01-02"), forecast.DateRangeEnd.Format("2006-01-02"))},
		{"Status", string(forecast.Status)},
		{"Schedules generated", fmt.Sprintf("%d", forecast.TotalSchedulesGenerated)},
	}
	if prediction, err := s.predictions.FindByForecast(ctx, forecastID); err == nil {
		summary = append(summary,
			[2]string{"Confidence score", fmt.Sprintf("%.2f", prediction.ConfidenceScore)},
			[2]string{"Error margin", fmt.Sprintf("%.2f", prediction.ErrorMargin)},
		)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prediction")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Time", "Room", "Movie", "Price", "Max Sales"},
		Summary: summary,
	}
	for _, schedule := range schedules {
		data.Rows = append(data.Rows, map[string]string{
			"Date":      schedule.TimeSlot.UTC().Format("2006-01-02"),
			"Time":      schedule.TimeSlot.UTC().Format("15:04"),
			"Room":      fmt.Sprintf("%d", schedule.RoomNumber),
			"Movie":     schedule.MovieTitle,
			"Price":     fmt.Sprintf("%.2f", schedule.UnitPrice+schedule.ServiceFee),
			"Max Sales": fmt.Sprintf("%d", schedule.MaxSales),
		})
	}

	payload, err := s.pdf.Render(data, fmt.Sprintf("Forecast Report - %s", forecast.Name))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render forecast report")
	}
	filename := fmt.Sprintf("forecast-%s-%s.pdf", forecast.ID, time.Now().UTC().Format("20060102"))
	s.keepCopy(filename, payload)
	return payload, filename, nil
}

// BookingsCSV exports the bookings matching a filter. The same date-bound
// guards as the list endpoint apply.
func (s *ReportService) BookingsCSV(ctx context.Context, filter models.ScheduleFilter) ([]byte, string, error) {
	bookings, _, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"id", "movie", "room", "time_slot", "unit_price", "service_fee", "max_sales", "current_sales", "status"},
	}
	for _, booking := range bookings {
		data.Rows = append(data.Rows, map[string]string{
			"id":            booking.ID,
			"movie":         booking.MovieTitle,
			"room":          fmt.Sprintf("%d", booking.RoomNumber),
			"time_slot":     booking.TimeSlot.UTC().Format(time.RFC3339),
			"unit_price":    fmt.Sprintf("%.2f", booking.UnitPrice),
			"service_fee":   fmt.Sprintf("%.2f", booking.ServiceFee),
			"max_sales":     fmt.Sprintf("%d", booking.MaxSales),
			"current_sales": fmt.Sprintf("%d", booking.CurrentSales),
			"status":        string(booking.Status),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bookings export")
	}
	filename := fmt.Sprintf("bookings-%s.csv", time.Now().UTC().Format("20060102-150405"))
	s.keepCopy(filename, payload)
	return payload, filename, nil
}
