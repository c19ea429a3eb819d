package examController

import (
	"encoding/json"
	"examly/database"
	"examly/middleware"
	"examly/models"
	examValidators "examly/validators/exam"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// questionCacheKey is the Redis key for an exam's sanitized question set.
func questionCacheKey(examID uint) string {
	return fmt.Sprintf("exam:questions:%d", examID)
}

// QuestionView is a question as shown to students: no expected answer, no
// grading keywords.
type QuestionView struct {
	ID           uint   `json:"id"`
	QuestionType string `json:"question_type"`
	QuestionText string `json:"question_text"`
	Marks        uint   `json:"marks"`
	OrderIndex   int    `json:"order_index"`
}

// CreateExam creates an exam for a course.
func CreateExam(c *fiber.Ctx) error {
	reqData := c.Locals("validatedExam").(*examValidators.ExamRequest)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	exam := models.Exam{
		CourseID:        course.ID,
		Title:           reqData.Title,
		Description:     reqData.Description,
		DurationMinutes: reqData.DurationMinutes,
		StartTime:       reqData.StartTime,
		EndTime:         reqData.EndTime,
		PassingMarks:    reqData.PassingMarks,
	}
	if reqData.IsPublished != nil {
		exam.IsPublished = *reqData.IsPublished
	}

	if err := db.Create(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create exam!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam created successfully!", exam)
}

// GetAllExams lists exams. Students see published exams of courses they are
// actively enrolled in.
func GetAllExams(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)

	db := database.Database.Db

	query := db.Model(&models.Exam{}).Where("exams.is_deleted = ?", false)

	if role != models.RoleTeacher {
		query = query.Where("exams.is_published = ?", true).
			Where("exams.course_id IN (?)", db.Model(&models.Enrollment{}).Select("course_id").
				Where("user_id = ? AND status = ? AND is_deleted = ?", userID, models.EnrollmentActive, false))
	}

	if courseID := c.QueryInt("course_id", 0); courseID > 0 {
		query = query.Where("exams.course_id = ?", courseID)
	}

	var exams []models.Exam
	if err := query.Order("created_at desc").Find(&exams).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch exams!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exams fetched successfully!", exams)
}

func GetExamDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)
	examID := c.Locals("examID").(int)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_deleted = ?", examID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	if role != models.RoleTeacher {
		if !exam.IsPublished {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
		}
		var enrollment models.Enrollment
		if err := db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
			userID, exam.CourseID, models.EnrollmentActive, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam fetched successfully!", exam)
}

func UpdateExam(c *fiber.Ctx) error {
	examID := c.Locals("examID").(int)
	reqData := c.Locals("validatedExam").(*examValidators.ExamRequest)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_deleted = ?", examID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	exam.Title = reqData.Title
	exam.Description = reqData.Description
	exam.DurationMinutes = reqData.DurationMinutes
	exam.StartTime = reqData.StartTime
	exam.EndTime = reqData.EndTime
	exam.PassingMarks = reqData.PassingMarks
	if reqData.IsPublished != nil {
		exam.IsPublished = *reqData.IsPublished
	}

	if err := db.Save(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update exam!", nil)
	}

	database.CacheDelete(questionCacheKey(exam.ID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam updated successfully!", exam)
}

func DeleteExam(c *fiber.Ctx) error {
	examID := c.Locals("examID").(int)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_deleted = ?", examID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	exam.IsDeleted = true
	if err := db.Save(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete exam!", nil)
	}

	database.CacheDelete(questionCacheKey(exam.ID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam deleted successfully!", nil)
}

// StartExam opens (or resumes) a student's attempt and returns the question
// set without expected answers.
func StartExam(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	examID := c.Locals("examID").(int)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", examID, true, false).First(&exam).Error; err != nil {
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

	// One attempt per student: resume an open attempt, refuse a finished one
	var submission models.Submission
	err := db.Where("user_id = ? AND exam_id = ? AND is_deleted = ?", user.ID, exam.ID, false).First(&submission).Error
	if err == nil && submission.Status != models.SubmissionInProgress {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You have already submitted this exam!", nil)
	}
	if err != nil {
		submission = models.Submission{
			UserID:     user.ID,
			ExamID:     exam.ID,
			StartedAt:  now,
			Status:     models.SubmissionInProgress,
			TotalMarks: float64(exam.TotalMarks),
		}
		if err := db.Create(&submission).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start exam!", nil)
		}
	}

	questions, err := loadQuestionViews(exam)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam started!", fiber.Map{
		"exam":       exam,
		"questions":  questions,
		"started_at": submission.StartedAt,
		"deadline":   exam.SubmissionDeadline(submission.StartedAt),
	})
}

// loadQuestionViews returns the student-facing question set, served from
// Redis when cached.
func loadQuestionViews(exam models.Exam) ([]QuestionView, error) {
	key := questionCacheKey(exam.ID)

	if cached := database.CacheGet(key); cached != nil {
		var views []QuestionView
		if err := json.Unmarshal(cached, &views); err == nil {
			return views, nil
		}
	}

	var questions []models.Question
	if err := database.Database.Db.
		Where("exam_id = ? AND is_deleted = ?", exam.ID, false).
		Order("order_index asc").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = QuestionView{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			QuestionText: q.QuestionText,
			Marks:        q.Marks,
			OrderIndex:   q.OrderIndex,
		}
	}

	if data, err := json.Marshal(views); err == nil {
		ttl := 10 * time.Minute
		if remaining := time.Until(exam.EndTime); remaining < ttl {
			ttl = remaining
		}
		database.CacheSet(key, data, ttl)
	}

	return views, nil
}
