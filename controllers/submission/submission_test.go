package submissionController_test

import (
	"bytes"
	"encoding/json"
	"examly/config"
	"examly/database"
	"examly/middleware"
	"examly/models"
	"examly/routers/submissionRoutes"
	"examly/utils"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	submissionRoutes.SetupSubmissionRoutes(app)
	return app
}

func createUser(t *testing.T, role string, email string) (*models.User, string) {
	t.Helper()

	user := &models.User{Name: "Test User", Email: email, Password: "hashed", Role: role}
	require.NoError(t, database.Database.Db.Create(user).Error)

	pair, err := middleware.GenerateTokenPair(user)
	require.NoError(t, err)
	return user, pair.AccessToken
}

// seedExam creates a published, currently active exam with one question and
// enrolls the given student.
func seedExam(t *testing.T, student *models.User) (*models.Exam, *models.Question) {
	t.Helper()
	db := database.Database.Db

	course := models.Course{Code: "PHY101", Title: "Physics", IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentActive}).Error)

	exam := models.Exam{
		CourseID:        course.ID,
		Title:           "Midterm",
		DurationMinutes: 60,
		StartTime:       time.Now().Add(-time.Hour),
		EndTime:         time.Now().Add(time.Hour),
		TotalMarks:      10,
		IsPublished:     true,
	}
	require.NoError(t, db.Create(&exam).Error)

	question := models.Question{
		ExamID:         exam.ID,
		QuestionText:   "What is gravity?",
		ExpectedAnswer: "Gravity is a force that attracts objects with mass toward each other.",
		Keywords:       datatypes.JSON([]byte(`["gravity", "force", "mass", "attracts"]`)),
		Marks:          10,
	}
	require.NoError(t, db.Create(&question).Error)

	return &exam, &question
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestSubmitExam(t *testing.T) {
	app := setupTestApp(t)
	student, token := createUser(t, models.RoleStudent, "student@example.com")
	exam, question := seedExam(t, student)

	resp := doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", token, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "Gravity is a force that attracts objects with mass."},
		},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission models.Submission
	require.NoError(t, database.Database.Db.
		First(&submission, "user_id = ? AND exam_id = ?", student.ID, exam.ID).Error)
	assert.Equal(t, models.SubmissionSubmitted, submission.Status)
	require.NotNil(t, submission.SubmittedAt)

	var answers []models.Answer
	require.NoError(t, database.Database.Db.
		Find(&answers, "submission_id = ?", submission.ID).Error)
	require.Len(t, answers, 1)
	assert.Equal(t, float64(10), answers[0].MarksAllocated)

	// Resubmitting a finished attempt is rejected
	resp = doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", token, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "Second try."},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitExamInvalidQuestionRollsBack(t *testing.T) {
	app := setupTestApp(t)
	student, token := createUser(t, models.RoleStudent, "student@example.com")
	exam, question := seedExam(t, student)

	resp := doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", token, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "A valid answer."},
			{"question_id": 9999, "answer_text": "Answer to a question from another exam."},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeEnvelope(t, resp)["message"], "Invalid question ID")

	var count int64
	database.Database.Db.Model(&models.Answer{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSubmitExamRequiresEnrollment(t *testing.T) {
	app := setupTestApp(t)
	student, _ := createUser(t, models.RoleStudent, "enrolled@example.com")
	exam, question := seedExam(t, student)
	_, outsiderToken := createUser(t, models.RoleStudent, "outsider@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", outsiderToken, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "I never enrolled."},
		},
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmitExamAfterDeadline(t *testing.T) {
	app := setupTestApp(t)
	student, token := createUser(t, models.RoleStudent, "student@example.com")
	exam, question := seedExam(t, student)

	// An attempt opened two hours ago on a one hour exam is out of time
	started := time.Now().Add(-2 * time.Hour)
	require.NoError(t, database.Database.Db.Create(&models.Submission{
		UserID: student.ID, ExamID: exam.ID, StartedAt: started,
		Status: models.SubmissionInProgress, TotalMarks: 10,
	}).Error)

	resp := doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", token, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "Too late."},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeEnvelope(t, resp)["message"], "time for this exam is over")
}

func TestGetSubmissionResultsAfterGrading(t *testing.T) {
	app := setupTestApp(t)
	student, token := createUser(t, models.RoleStudent, "student@example.com")
	exam, question := seedExam(t, student)

	resp := doJSON(t, app, "POST", "/api/v1/submissions/submit_exam", token, fiber.Map{
		"exam_id": exam.ID,
		"answers": []fiber.Map{
			{"question_id": question.ID, "answer_text": "Gravity is a force that attracts objects with mass toward each other."},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission models.Submission
	require.NoError(t, database.Database.Db.
		First(&submission, "user_id = ? AND exam_id = ?", student.ID, exam.ID).Error)

	// Results are unavailable until grading has run
	resp = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/submissions/%d/results", submission.ID), token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// The worker is not running in tests; grade inline
	utils.ProcessGrading(submission.ID)

	resp = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/submissions/%d/results", submission.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	graded := data["submission"].(map[string]interface{})
	assert.Equal(t, models.SubmissionGraded, graded["status"])
	assert.Greater(t, graded["obtained_marks"].(float64), 0.0)
	assert.NotNil(t, data["grading_result"])
}

func TestStudentsOnlySeeOwnSubmissions(t *testing.T) {
	app := setupTestApp(t)
	student, ownerToken := createUser(t, models.RoleStudent, "owner@example.com")
	exam, _ := seedExam(t, student)
	_, otherToken := createUser(t, models.RoleStudent, "other@example.com")
	_, teacherToken := createUser(t, models.RoleTeacher, "teacher@example.com")

	now := time.Now()
	submission := models.Submission{
		UserID: student.ID, ExamID: exam.ID, StartedAt: now, SubmittedAt: &now,
		Status: models.SubmissionSubmitted, TotalMarks: 10,
	}
	require.NoError(t, database.Database.Db.Create(&submission).Error)

	path := fmt.Sprintf("/api/v1/submissions/%d", submission.ID)

	resp := doJSON(t, app, "GET", path, ownerToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Another student gets a 404, not a 403, so nothing leaks
	resp = doJSON(t, app, "GET", path, otherToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The results endpoint is gated the same way
	resp = doJSON(t, app, "GET", path+"/results", otherToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "GET", path, teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Listing is scoped the same way
	resp = doJSON(t, app, "GET", "/api/v1/submissions/", otherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])

	resp = doJSON(t, app, "GET", "/api/v1/submissions/", ownerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestUngradedAnswersHideExpectedAnswerFromStudents(t *testing.T) {
	app := setupTestApp(t)
	student, token := createUser(t, models.RoleStudent, "student@example.com")
	exam, question := seedExam(t, student)

	now := time.Now()
	submission := models.Submission{
		UserID: student.ID, ExamID: exam.ID, StartedAt: now, SubmittedAt: &now,
		Status: models.SubmissionSubmitted, TotalMarks: 10,
	}
	require.NoError(t, database.Database.Db.Create(&submission).Error)
	require.NoError(t, database.Database.Db.Create(&models.Answer{
		SubmissionID: submission.ID, QuestionID: question.ID,
		AnswerText: "My answer.", MarksAllocated: 10,
	}).Error)

	resp := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/submissions/%d", submission.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	answers := data["answers"].([]interface{})
	require.Len(t, answers, 1)
	answerQuestion := answers[0].(map[string]interface{})["question"].(map[string]interface{})
	assert.Empty(t, answerQuestion["expected_answer"])
}
