package submissionValidator

import (
	"examly/middleware"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Answers longer than this are rejected before they reach the grader.
const maxAnswerLength = 5000

type AnswerPayload struct {
	QuestionID uint   `json:"question_id"`
	AnswerText string `json:"answer_text"`
}

type SubmitExamRequest struct {
	ExamID  uint            `json:"exam_id"`
	Answers []AnswerPayload `json:"answers"`
}

func SubmitExam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitExamRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.ExamID == 0 {
			errors["exam_id"] = "Exam ID is required!"
		}

		if len(reqData.Answers) == 0 {
			errors["answers"] = "At least one answer is required!"
		}

		for i, answer := range reqData.Answers {
			if answer.QuestionID == 0 {
				errors[fmt.Sprintf("answers[%d].question_id", i)] = "Question ID is required!"
			}
			if strings.TrimSpace(answer.AnswerText) == "" {
				errors[fmt.Sprintf("answers[%d].answer_text", i)] = "Answer text is required!"
			} else if len(answer.AnswerText) > maxAnswerLength {
				errors[fmt.Sprintf("answers[%d].answer_text", i)] = fmt.Sprintf("Answer text cannot exceed %d characters!", maxAnswerLength)
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}

type ListRequest struct {
	Page   *int   `query:"page"`
	Limit  *int   `query:"limit"`
	ExamID *uint  `query:"exam_id"`
	Status string `query:"status"`
}

func SubmissionList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListRequest)

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Page != nil && *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}
		if reqData.Limit != nil && *reqData.Limit < 1 {
			errors["limit"] = "Limit must be greater than 0!"
		}
		if reqData.Status != "" {
			status := strings.ToUpper(reqData.Status)
			if status != "IN_PROGRESS" && status != "SUBMITTED" && status != "GRADED" {
				errors["status"] = "Status must be IN_PROGRESS, SUBMITTED or GRADED!"
			}
			reqData.Status = status
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// SubmissionID validates the :id path parameter.
func SubmissionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid submission ID!", nil)
		}

		c.Locals("submissionID", id)
		return c.Next()
	}
}
