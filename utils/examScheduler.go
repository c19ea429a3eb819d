package utils

import (
	"examly/database"
	"examly/models"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[EXAM-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// ForceSubmitOverdueAttempts hands in IN_PROGRESS submissions whose deadline
// has passed and queues them for grading. The deadline is the earlier of the
// exam end time and startedAt + duration.
func ForceSubmitOverdueAttempts() {
	db := database.Database.Db
	now := time.Now()

	var attempts []models.Submission
	if err := db.Where("status = ? AND is_deleted = false", models.SubmissionInProgress).
		Preload("Exam").
		Find(&attempts).Error; err != nil {
		logScheduler("Error fetching in-progress submissions: " + err.Error())
		return
	}

	for i := range attempts {
		attempt := &attempts[i]
		deadline := attempt.Exam.SubmissionDeadline(attempt.StartedAt)
		if now.Before(deadline) {
			continue
		}

		attempt.Status = models.SubmissionSubmitted
		attempt.SubmittedAt = &deadline
		if err := db.Save(attempt).Error; err != nil {
			logScheduler(fmt.Sprintf("Error force-submitting submission %d: %v", attempt.ID, err))
			continue
		}

		logScheduler(fmt.Sprintf("Force-submitted overdue submission %d (exam %d)", attempt.ID, attempt.ExamID))

		if !EnqueueGrading(attempt.ID) {
			go ProcessGrading(attempt.ID)
		}
	}
}

// CleanupStaleAttempts drops IN_PROGRESS submissions whose exam was
// unpublished or removed after the attempt started.
func CleanupStaleAttempts() {
	db := database.Database.Db

	result := db.Model(&models.Submission{}).
		Where("status = ? AND is_deleted = false", models.SubmissionInProgress).
		Where("exam_id IN (?)", db.Model(&models.Exam{}).Select("id").
			Where("is_published = false OR is_deleted = true")).
		Update("is_deleted", true)

	if result.Error != nil {
		logScheduler("Error cleaning stale attempts: " + result.Error.Error())
		return
	}
	if result.RowsAffected > 0 {
		logScheduler(fmt.Sprintf("Cleaned %d stale in-progress attempts", result.RowsAffected))
	}
}

// StartExamScheduler wires the cron jobs for exam lifecycle maintenance.
func StartExamScheduler() {
	c := cron.New()

	// Every minute: hand in attempts that ran out of time
	c.AddFunc("* * * * *", func() {
		ForceSubmitOverdueAttempts()
	})

	// Daily at 03:00: drop attempts against unpublished/removed exams
	c.AddFunc("0 3 * * *", func() {
		CleanupStaleAttempts()
	})

	c.Start()
	logScheduler("Exam scheduler started")
}
