package examValidator

import (
	"examly/middleware"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type ExamRequest struct {
	CourseID        uint      `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes uint      `json:"duration_minutes"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	PassingMarks    uint      `json:"passing_marks"`
	IsPublished     *bool     `json:"is_published"`
}

func validateExamPayload(reqData *ExamRequest, requireCourse bool) map[string]string {
	errors := make(map[string]string)

	if requireCourse && reqData.CourseID == 0 {
		errors["course_id"] = "Course ID is required!"
	}

	if strings.TrimSpace(reqData.Title) == "" {
		errors["title"] = "Title is required!"
	} else if len(strings.TrimSpace(reqData.Title)) < 3 {
		errors["title"] = "Title must be at least 3 characters long!"
	}

	if reqData.DurationMinutes < 1 {
		errors["duration_minutes"] = "Duration must be at least 1 minute!"
	}

	if reqData.StartTime.IsZero() {
		errors["start_time"] = "Start time is required!"
	}
	if reqData.EndTime.IsZero() {
		errors["end_time"] = "End time is required!"
	}
	if !reqData.StartTime.IsZero() && !reqData.EndTime.IsZero() && !reqData.StartTime.Before(reqData.EndTime) {
		errors["end_time"] = "End time must be after start time!"
	}

	return errors
}

func CreateExam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ExamRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateExamPayload(reqData, true); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedExam", reqData)
		return c.Next()
	}
}

func UpdateExam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ExamRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateExamPayload(reqData, false); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedExam", reqData)
		return c.Next()
	}
}

// ExamID validates the :id path parameter.
func ExamID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid exam ID!", nil)
		}

		c.Locals("examID", id)
		return c.Next()
	}
}

type QuestionRequest struct {
	ExamID         uint     `json:"exam_id"`
	QuestionType   string   `json:"question_type"`
	QuestionText   string   `json:"question_text"`
	ExpectedAnswer string   `json:"expected_answer"`
	Keywords       []string `json:"keywords"`
	Marks          uint     `json:"marks"`
	OrderIndex     int      `json:"order_index"`
}

var questionTypes = map[string]bool{
	"essay":        true,
	"short_answer": true,
	"paragraph":    true,
}

func validateQuestionPayload(reqData *QuestionRequest, requireExam bool) map[string]string {
	errors := make(map[string]string)

	if requireExam && reqData.ExamID == 0 {
		errors["exam_id"] = "Exam ID is required!"
	}

	if strings.TrimSpace(reqData.QuestionText) == "" {
		errors["question_text"] = "Question text is required!"
	}

	if strings.TrimSpace(reqData.ExpectedAnswer) == "" && len(reqData.Keywords) == 0 {
		errors["expected_answer"] = "An expected answer or keywords are required for grading!"
	}

	if reqData.Marks < 1 {
		errors["marks"] = "Marks must be at least 1!"
	}

	qType := strings.ToLower(strings.TrimSpace(reqData.QuestionType))
	if qType == "" {
		qType = "essay"
	}
	if !questionTypes[qType] {
		errors["question_type"] = "Question type must be essay, short_answer or paragraph!"
	}
	reqData.QuestionType = qType

	return errors
}

func CreateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuestionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateQuestionPayload(reqData, true); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

func UpdateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuestionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validateQuestionPayload(reqData, false); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

// QuestionID validates the :id path parameter.
func QuestionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid question ID!", nil)
		}

		c.Locals("questionID", id)
		return c.Next()
	}
}
