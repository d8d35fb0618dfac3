package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/export"
)

// Report formats.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ReportConfig tunes report rendering.
type ReportConfig struct {
	Enabled bool
	Title   string
}

// Report is a rendered summary document.
type Report struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReportService renders a one-page KPI summary of a student across every
// dashboard.
type ReportService struct {
	charts chartSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
	cfg    ReportConfig
}

// NewReportService constructs a ReportService.
func NewReportService(charts chartSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Student Learning Summary"
	}
	return &ReportService{charts: charts, csv: csv, pdf: pdf, logger: logger, now: time.Now, cfg: cfg}
}

// Summary renders the student's summary in the requested format.
func (s *ReportService) Summary(ctx context.Context, student *models.StudentClaims, format string) (*Report, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrFeatureDisabled
	}
	if err := requireStudent(student); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ReportFormatCSV
	}
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	data, err := s.Dataset(ctx, student)
	if err != nil {
		return nil, err
	}

	stamp := s.now().UTC()
	filename := fmt.Sprintf("summary_%d_%s.%s", student.StudentKey, stamp.Format("20060102"), format)
	var payload []byte
	var contentType string
	switch format {
	case ReportFormatPDF:
		subtitle := fmt.Sprintf("Student %d - generated %s", student.StudentKey, stamp.Format(time.RFC3339))
		payload, err = s.pdf.Render(data, s.cfg.Title, subtitle)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(data)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Info("summary report rendered",
		zap.Int64("student_key", student.StudentKey),
		zap.String("format", format),
		zap.Int("bytes", len(payload)),
	)
	return &Report{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

// Dataset collects the summary rows (section, metric, value).
func (s *ReportService) Dataset(ctx context.Context, student *models.StudentClaims) (export.Dataset, error) {
	data := export.Dataset{Headers: []string{"section", "metric", "value"}}

	practice, _, err := s.charts.Practice(ctx, student)
	if err != nil {
		return data, err
	}
	data.Append("practice", "attempts", strconv.Itoa(practice.KPI.Attempts))
	data.Append("practice", "sessions", strconv.Itoa(practice.KPI.Sessions))
	data.Append("practice", "average score rate", formatMeasure(practice.KPI.AverageScoreRate, 0))
	data.Append("practice", "average duration (s)", formatMeasure(practice.KPI.AverageDuration, 0))
	data.Append("practice", "item accuracy", practice.KPI.ItemAccuracyText)

	quiz, _, err := s.charts.Quiz(ctx, student, dto.QuizQuery{})
	if err != nil {
		return data, err
	}
	data.Append("quiz", "missions", strconv.Itoa(quiz.TotalMissions))
	data.Append("quiz", "accuracy", quiz.AccuracyText)
	data.Append("quiz", "mean seconds", formatMeasure(quiz.MeanSeconds, 1))
	data.Append("quiz", "perfect missions", strconv.Itoa(len(quiz.PerfectMissions)))

	video, _, err := s.charts.Video(ctx, student, dto.VideoQuery{})
	if err != nil {
		return data, err
	}
	data.Append("video", "sessions", strconv.Itoa(video.KPI.Sessions))
	data.Append("video", "distinct videos", strconv.Itoa(video.KPI.DistinctVideos))
	data.Append("video", "average finish rate", formatMeasure(video.KPI.AverageFinishRate, 1))
	data.Append("video", "best subject", video.KPI.BestSubject)

	math, _, err := s.charts.Math(ctx, student, dto.MathQuery{})
	if err != nil {
		return data, err
	}
	data.Append("math", "attempts", strconv.Itoa(math.KPI.Attempts))
	data.Append("math", "accuracy", math.KPI.AccuracyText)
	data.Append("math", "mean time", math.KPI.MeanSecondsText)
	data.Append("math", "units", strconv.Itoa(math.KPI.Units))

	overview, _, err := s.charts.Overview(ctx, student)
	if err != nil {
		return data, err
	}
	for _, a := range overview.Activity {
		data.Append("class", a.Label+" vs class", formatNumber(a.Student)+" / "+formatMeasure(a.ClassAverage, 1))
	}
	data.Append("class", "score rate percentile", formatMeasure(overview.ScoreRatePercentile, 1))
	return data, nil
}
