package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// DailyReportService builds the end-of-day survey digest, persists it, and
// pushes it to subscribed bots. The schedule is read from system config so
// admins can move the send time without a restart.
type DailyReportService struct {
	db             *gorm.DB
	configs        *SystemConfigService
	notifications  *NotificationService
	summaries      *SummaryService
	businessName   string
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewDailyReportService(db *gorm.DB, configs *SystemConfigService, notifications *NotificationService, summaries *SummaryService, businessName string) *DailyReportService {
	return &DailyReportService{
		db:            db,
		configs:       configs,
		notifications: notifications,
		summaries:     summaries,
		businessName:  businessName,
	}
}

func (s *DailyReportService) StartScheduler() {
	s.cronScheduler = cron.New()
	s.updateSchedule()
	s.cronScheduler.Start()
	logger.Info().Msg("[DailyReport] Scheduler started")
}

func (s *DailyReportService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *DailyReportService) updateSchedule() {
	if s.currentEntryID != 0 {
		s.cronScheduler.Remove(s.currentEntryID)
	}

	reportTime := s.configs.GetWithDefault("daily_report_time", "18:00")
	parts := strings.Split(reportTime, ":")
	hour, minute := "18", "0"
	if len(parts) == 2 {
		hour = parts[0]
		minute = parts[1]
	}
	cronExpr := fmt.Sprintf("%s %s * * *", minute, hour)

	entryID, err := s.cronScheduler.AddFunc(cronExpr, func() {
		if s.configs.GetWithDefault("daily_report_enabled", "false") != "true" {
			return
		}
		if err := s.GenerateAndSend(time.Now()); err != nil {
			logger.Error().Err(err).Msg("[DailyReport] generation failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("[DailyReport] Failed to add cron job")
		return
	}
	s.currentEntryID = entryID
	logger.Infof("[DailyReport] Scheduled daily at %s", reportTime)
}

// RescheduleFromConfig re-reads the configured send time.
func (s *DailyReportService) RescheduleFromConfig() {
	if s.cronScheduler != nil {
		s.updateSchedule()
	}
}

type storeDigestLine struct {
	Name    string `json:"name"`
	NPS     int    `json:"nps"`
	Surveys int    `json:"surveys"`
}

// GenerateAndSend builds the digest for the calendar day containing t. The
// report row is unique per date; a rerun replaces the day's numbers.
func (s *DailyReportService) GenerateAndSend(t time.Time) error {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var started, completedCount, optOuts int64
	s.db.Model(&models.Customer{}).
		Where("survey_started_at >= ? AND survey_started_at < ?", dayStart, dayEnd).
		Count(&started)
	s.db.Model(&models.Customer{}).
		Where("status = ? AND survey_completed_at >= ? AND survey_completed_at < ?",
			models.CustomerStatusCompleted, dayStart, dayEnd).
		Count(&completedCount)
	s.db.Model(&models.Customer{}).
		Where("status = ? AND opt_out_at >= ? AND opt_out_at < ?",
			models.CustomerStatusOptedOut, dayStart, dayEnd).
		Count(&optOuts)

	var dayCustomers []models.Customer
	if err := s.db.
		Where("status = ? AND survey_completed_at >= ? AND survey_completed_at < ?",
			models.CustomerStatusCompleted, dayStart, dayEnd).
		Find(&dayCustomers).Error; err != nil {
		return err
	}

	stats := BuildStats(dayCustomers)

	topStores := topStoreLines(stats, 3)
	topStoresJSON, _ := json.Marshal(topStores)

	report := &models.DailyReport{
		ReportDate:       dayStart,
		SurveysStarted:   int(started),
		SurveysCompleted: int(completedCount),
		OptOuts:          int(optOuts),
		AverageRating:    stats.AverageRating,
		AverageNPS:       stats.AverageNPS,
		CompanyNPS:       stats.CompanyNPS,
		ManagerCallbacks: stats.ManagerCallbacks,
		TopStores:        string(topStoresJSON),
	}

	if summary, model, err := s.summarizeDay(dayStart, dayEnd); err != nil {
		logger.Warn().Err(err).Msg("[DailyReport] feedback summary skipped")
	} else {
		report.AISummary = summary
		report.AIModelUsed = model
	}

	if err := s.upsertReport(report); err != nil {
		return fmt.Errorf("persist daily report: %w", err)
	}

	digest := &DigestNotification{
		Date:             dayStart.Format("2006-01-02"),
		BusinessName:     s.businessName,
		SurveysStarted:   report.SurveysStarted,
		SurveysCompleted: report.SurveysCompleted,
		OptOuts:          report.OptOuts,
		AverageRating:    report.AverageRating,
		CompanyNPS:       report.CompanyNPS,
		ManagerCallbacks: report.ManagerCallbacks,
		Summary:          report.AISummary,
	}
	for _, line := range topStores {
		digest.TopStoreLines = append(digest.TopStoreLines,
			fmt.Sprintf("%s: NPS %d (%d surveys)", line.Name, line.NPS, line.Surveys))
	}

	now := time.Now()
	if err := s.notifications.SendDailyDigest(digest); err != nil {
		report.NotifyError = err.Error()
		s.db.Model(report).Update("notify_error", report.NotifyError)
		return err
	}
	report.NotifiedAt = &now
	return s.db.Model(report).Update("notified_at", now).Error
}

func (s *DailyReportService) summarizeDay(dayStart, dayEnd time.Time) (string, string, error) {
	if s.summaries == nil || !s.summaries.Enabled() {
		return "", "", nil
	}

	var comments []string
	err := s.db.Model(&models.Response{}).
		Joins("JOIN questions ON questions.id = responses.question_id").
		Where("questions.type = ? AND responses.answered_at >= ? AND responses.answered_at < ?",
			models.QuestionTypeOpenText, dayStart, dayEnd).
		Pluck("responses.processed_answer", &comments).Error
	if err != nil {
		return "", "", err
	}
	if len(comments) == 0 {
		return "", "", nil
	}

	summary, err := s.summaries.Summarize(context.Background(), s.businessName, comments)
	if err != nil {
		return "", "", err
	}
	return summary, s.summaries.Model(), nil
}

func (s *DailyReportService) upsertReport(report *models.DailyReport) error {
	var existing models.DailyReport
	err := s.db.Where("report_date = ?", report.ReportDate).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(report).Error
	}
	if err != nil {
		return err
	}
	report.ID = existing.ID
	report.CreatedAt = existing.CreatedAt
	return s.db.Save(report).Error
}

// List returns recent reports, newest first.
func (s *DailyReportService) List(limit int) ([]models.DailyReport, error) {
	if limit <= 0 || limit > 90 {
		limit = 30
	}
	var reports []models.DailyReport
	err := s.db.Order("report_date DESC").Limit(limit).Find(&reports).Error
	return reports, err
}

func topStoreLines(stats *SurveyStats, n int) []storeDigestLine {
	lines := make([]storeDigestLine, 0, len(stats.ByStore))
	for name, ss := range stats.ByStore {
		lines = append(lines, storeDigestLine{Name: name, NPS: ss.StoreNPS, Surveys: ss.Count})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].NPS != lines[j].NPS {
			return lines[i].NPS > lines[j].NPS
		}
		return lines[i].Surveys > lines[j].Surveys
	})
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
