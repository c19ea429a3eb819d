package utils

import (
	"encoding/json"
	"examly/database"
	"examly/models"
	"examly/services/grading"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// gradingQueue buffers submission IDs awaiting grading.
var gradingQueue = make(chan uint, 128)

// logWorker logs grading worker events with timestamp
func logWorker(message string) {
	log.Printf("[GRADING-WORKER %s] %s", time.Now().Format(time.RFC3339), message)
}

// StartGradingWorker launches the background goroutine that drains the
// grading queue.
func StartGradingWorker() {
	go func() {
		for submissionID := range gradingQueue {
			ProcessGrading(submissionID)
		}
	}()
	logWorker("Grading worker started")
}

// EnqueueGrading queues a submission for asynchronous grading. Returns
// false when the queue is full; callers then grade inline instead.
func EnqueueGrading(submissionID uint) bool {
	select {
	case gradingQueue <- submissionID:
		return true
	default:
		return false
	}
}

// ProcessGrading grades a submission, optionally runs AI analysis, and
// notifies the student. Safe to call directly as the synchronous fallback.
func ProcessGrading(submissionID uint) {
	grader := grading.NewGrader()
	result, err := grader.GradeSubmission(submissionID)
	if err != nil {
		logWorker(fmt.Sprintf("Grading failed for submission %d: %v", submissionID, err))
		return
	}
	logWorker(fmt.Sprintf("Graded submission %d", submissionID))

	// AI analysis is strictly additive; failures leave the keyword result
	// intact.
	if analyzer := grading.NewAnalyzer(); analyzer != nil {
		if analysis, err := analyzer.AnalyzeSubmission(submissionID); err != nil {
			logWorker(fmt.Sprintf("AI analysis failed for submission %d: %v", submissionID, err))
		} else if err := storeAnalysis(submissionID, analysis); err != nil {
			logWorker(fmt.Sprintf("Storing AI analysis failed for submission %d: %v", submissionID, err))
		}
	}

	notifyStudent(submissionID, result)
}

func storeAnalysis(submissionID uint, analysis *grading.Analysis) error {
	db := database.Database.Db

	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}

	var result models.GradingResult
	if err := db.Where("submission_id = ?", submissionID).First(&result).Error; err != nil {
		return err
	}

	result.GradingMethod = models.GradingMethodAIAssisted
	result.Summary = analysis.Summary
	result.Suggestions = strings.Join(analysis.Suggestions, "\n")
	result.PerformanceAnalysis = datatypes.JSON(payload)
	return db.Save(&result).Error
}

func notifyStudent(submissionID uint, result *grading.SubmissionResult) {
	db := database.Database.Db

	var submission models.Submission
	if err := db.Preload("User").Preload("Exam").First(&submission, submissionID).Error; err != nil {
		logWorker(fmt.Sprintf("Could not load submission %d for notification: %v", submissionID, err))
		return
	}

	if submission.User.Email == "" {
		return
	}

	go SendGradeEmail(
		submission.User.Email,
		submission.User.Name,
		submission.Exam.Title,
		result.TotalObtained,
		result.TotalMarks,
		result.Percentage,
	)
}
