package submissionController

import (
	"examly/database"
	"examly/middleware"
	"examly/models"
	"examly/utils"
	submissionValidators "examly/validators/submission"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubmitExam stores a student's answers and queues the submission for
// grading. The whole write is transactional: an invalid question ID rolls
// back everything.
func SubmitExam(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := c.Locals("validatedSubmission").(*submissionValidators.SubmitExamRequest)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", reqData.ExamID, true, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found or not published!", nil)
	}

	now := time.Now()
	if !exam.IsActive(now) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Exam is not currently active!", nil)
	}

	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
		user.ID, exam.CourseID, models.EnrollmentActive, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	// An attempt opened via the start endpoint is reused; a finished one
	// blocks resubmission.
	var submission models.Submission
	err := db.Where("user_id = ? AND exam_id = ? AND is_deleted = ?", user.ID, exam.ID, false).First(&submission).Error
	if err == nil && submission.Status != models.SubmissionInProgress {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You have already submitted this exam!", nil)
	}
	hasAttempt := err == nil

	if hasAttempt && now.After(exam.SubmissionDeadline(submission.StartedAt)) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "The time for this exam is over!", nil)
	}

	var badQuestion uint
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if !hasAttempt {
			submission = models.Submission{
				UserID:     user.ID,
				ExamID:     exam.ID,
				StartedAt:  now,
				TotalMarks: float64(exam.TotalMarks),
			}
			if err := tx.Create(&submission).Error; err != nil {
				return err
			}
		}

		for _, answerData := range reqData.Answers {
			var question models.Question
			if err := tx.Where("id = ? AND exam_id = ? AND is_deleted = ?",
				answerData.QuestionID, exam.ID, false).First(&question).Error; err != nil {
				badQuestion = answerData.QuestionID
				return fmt.Errorf("invalid question ID: %d", answerData.QuestionID)
			}

			answer := models.Answer{
				SubmissionID:   submission.ID,
				QuestionID:     question.ID,
				AnswerText:     answerData.AnswerText,
				MarksAllocated: float64(question.Marks),
			}

			// Re-submitting an answer from an open attempt overwrites it
			var existing models.Answer
			if err := tx.Where("submission_id = ? AND question_id = ?", submission.ID, question.ID).
				First(&existing).Error; err == nil {
				existing.AnswerText = answer.AnswerText
				existing.MarksAllocated = answer.MarksAllocated
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				continue
			}

			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		}

		submission.Status = models.SubmissionSubmitted
		submission.SubmittedAt = &now
		submission.TotalMarks = float64(exam.TotalMarks)
		return tx.Save(&submission).Error
	})

	if txErr != nil {
		if badQuestion != 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false,
				fmt.Sprintf("Invalid question ID: %d", badQuestion), nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit exam!", nil)
	}

	// Grading runs on the worker queue; a full queue falls back to grading
	// inline so the submission is never left ungraded.
	if !utils.EnqueueGrading(submission.ID) {
		utils.ProcessGrading(submission.ID)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam submitted successfully!", submission)
}

// GetSubmissions lists submissions. Students only ever see their own.
func GetSubmissions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)

	reqData := c.Locals("validatedList").(*submissionValidators.ListRequest)

	page, limit := 1, 10
	if reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset, limit := utils.Paginate(page, limit)

	db := database.Database.Db

	query := db.Model(&models.Submission{}).Where("is_deleted = ?", false)
	if role != models.RoleTeacher {
		query = query.Where("user_id = ?", userID)
	}
	if reqData.ExamID != nil {
		query = query.Where("exam_id = ?", *reqData.ExamID)
	}
	if reqData.Status != "" {
		query = query.Where("status = ?", reqData.Status)
	}

	var total int64
	query.Count(&total)

	var submissions []models.Submission
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&submissions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissions fetched successfully!", fiber.Map{
		"submissions": submissions,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// loadOwnedSubmission fetches a submission, enforcing that students can
// only reach their own. On denial the error response has already been
// written and the returned submission is nil; callers must stop there.
func loadOwnedSubmission(c *fiber.Ctx, preloadAnswers bool) (*models.Submission, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)
	submissionID := c.Locals("submissionID").(int)

	db := database.Database.Db

	query := db.Where("id = ? AND is_deleted = ?", submissionID, false)
	if preloadAnswers {
		query = query.Preload("Answers", "is_deleted = ?", false).Preload("Answers.Question")
	}

	var submission models.Submission
	if err := query.First(&submission).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}

	if role != models.RoleTeacher && submission.UserID != userID {
		// Do not leak that the submission exists
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}

	// Grading keys stay hidden from students until grading is done
	if role != models.RoleTeacher && !submission.IsGraded {
		for i := range submission.Answers {
			submission.Answers[i].Question.ExpectedAnswer = ""
			submission.Answers[i].Question.Keywords = nil
		}
	}

	return &submission, nil
}

func GetSubmissionDetails(c *fiber.Ctx) error {
	submission, err := loadOwnedSubmission(c, true)
	if submission == nil {
		return err
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission fetched successfully!", submission)
}

// GetSubmissionResults returns the graded submission with per-answer
// feedback and the grading result, including AI analysis when present.
func GetSubmissionResults(c *fiber.Ctx) error {
	submission, err := loadOwnedSubmission(c, true)
	if submission == nil {
		return err
	}

	if !submission.IsGraded {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Submission is not yet graded!", nil)
	}

	var gradingResult *models.GradingResult
	var result models.GradingResult
	if err := database.Database.Db.Where("submission_id = ? AND is_deleted = ?", submission.ID, false).
		First(&result).Error; err == nil {
		gradingResult = &result
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Results fetched successfully!", fiber.Map{
		"submission":     submission,
		"grading_result": gradingResult,
	})
}
