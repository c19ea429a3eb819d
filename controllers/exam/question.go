package examController

import (
	"encoding/json"
	"examly/database"
	"examly/middleware"
	"examly/models"
	examValidators "examly/validators/exam"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// retotalExamMarks keeps exam.TotalMarks equal to the sum of its question
// marks.
func retotalExamMarks(db *gorm.DB, examID uint) error {
	var total int64
	if err := db.Model(&models.Question{}).
		Where("exam_id = ? AND is_deleted = ?", examID, false).
		Select("COALESCE(SUM(marks), 0)").
		Scan(&total).Error; err != nil {
		return err
	}

	if err := db.Model(&models.Exam{}).Where("id = ?", examID).
		Update("total_marks", total).Error; err != nil {
		return err
	}

	database.CacheDelete(questionCacheKey(examID))
	return nil
}

// CreateQuestion adds a question to an exam.
func CreateQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestion").(*examValidators.QuestionRequest)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_deleted = ?", reqData.ExamID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	keywordsJSON, err := json.Marshal(reqData.Keywords)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid keywords!", nil)
	}

	question := models.Question{
		ExamID:         exam.ID,
		QuestionType:   reqData.QuestionType,
		QuestionText:   reqData.QuestionText,
		ExpectedAnswer: reqData.ExpectedAnswer,
		Keywords:       datatypes.JSON(keywordsJSON),
		Marks:          reqData.Marks,
		OrderIndex:     reqData.OrderIndex,
	}

	if err := db.Create(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	if err := retotalExamMarks(db, exam.ID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update exam marks!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully!", question)
}

// GetExamQuestions lists an exam's questions including grading fields.
// Teacher only; students get theirs through the start endpoint.
func GetExamQuestions(c *fiber.Ctx) error {
	examID := c.Locals("examID").(int)

	db := database.Database.Db

	var exam models.Exam
	if err := db.Where("id = ? AND is_deleted = ?", examID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	var questions []models.Question
	if err := db.Where("exam_id = ? AND is_deleted = ?", examID, false).
		Order("order_index asc").
		Find(&questions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questions fetched successfully!", questions)
}

func UpdateQuestion(c *fiber.Ctx) error {
	questionID := c.Locals("questionID").(int)
	reqData := c.Locals("validatedQuestion").(*examValidators.QuestionRequest)

	db := database.Database.Db

	var question models.Question
	if err := db.Where("id = ? AND is_deleted = ?", questionID, false).First(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	keywordsJSON, err := json.Marshal(reqData.Keywords)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid keywords!", nil)
	}

	question.QuestionType = reqData.QuestionType
	question.QuestionText = reqData.QuestionText
	question.ExpectedAnswer = reqData.ExpectedAnswer
	question.Keywords = datatypes.JSON(keywordsJSON)
	question.Marks = reqData.Marks
	question.OrderIndex = reqData.OrderIndex

	if err := db.Save(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update question!", nil)
	}

	if err := retotalExamMarks(db, question.ExamID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update exam marks!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question updated successfully!", question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	questionID := c.Locals("questionID").(int)

	db := database.Database.Db

	var question models.Question
	if err := db.Where("id = ? AND is_deleted = ?", questionID, false).First(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	question.IsDeleted = true
	if err := db.Save(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete question!", nil)
	}

	if err := retotalExamMarks(db, question.ExamID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update exam marks!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question deleted successfully!", nil)
}
