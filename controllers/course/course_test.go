package courseController_test

import (
	"bytes"
	"encoding/json"
	"examly/config"
	"examly/database"
	"examly/middleware"
	"examly/models"
	"examly/routers/courseRoutes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	courseRoutes.SetupCourseRoutes(app)
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

func TestCreateCourseRequiresTeacherRole(t *testing.T) {
	app := setupTestApp(t)
	_, studentToken := createUser(t, models.RoleStudent, "student@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/courses/", studentToken, fiber.Map{
		"code": "CS101", "title": "Intro to CS",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCreateCourse(t *testing.T) {
	app := setupTestApp(t)
	teacher, teacherToken := createUser(t, models.RoleTeacher, "teacher@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/courses/", teacherToken, fiber.Map{
		"code": "cs101", "title": "Intro to CS", "description": "Basics",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course models.Course
	require.NoError(t, database.Database.Db.First(&course, "code = ?", "CS101").Error)
	assert.Equal(t, "Intro to CS", course.Title)
	assert.Equal(t, teacher.ID, course.CreatedByID)
	assert.True(t, course.IsActive)

	// Same code again conflicts
	resp = doJSON(t, app, "POST", "/api/v1/courses/", teacherToken, fiber.Map{
		"code": "CS101", "title": "Duplicate",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGetAllCoursesHidesInactiveFromStudents(t *testing.T) {
	app := setupTestApp(t)
	_, studentToken := createUser(t, models.RoleStudent, "student@example.com")
	_, teacherToken := createUser(t, models.RoleTeacher, "teacher@example.com")

	db := database.Database.Db
	require.NoError(t, db.Create(&models.Course{Code: "CS101", Title: "Active", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Course{Code: "CS102", Title: "Inactive", IsActive: false}).Error)

	resp := doJSON(t, app, "GET", "/api/v1/courses/", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	resp = doJSON(t, app, "GET", "/api/v1/courses/", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
}

func TestEnrollInCourse(t *testing.T) {
	app := setupTestApp(t)
	student, studentToken := createUser(t, models.RoleStudent, "student@example.com")

	course := models.Course{Code: "CS101", Title: "Intro", IsActive: true}
	require.NoError(t, database.Database.Db.Create(&course).Error)

	resp := doJSON(t, app, "POST", "/api/v1/courses/1/enroll", studentToken, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var enrollment models.Enrollment
	require.NoError(t, database.Database.Db.
		First(&enrollment, "user_id = ? AND course_id = ?", student.ID, course.ID).Error)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)

	// Enrolling twice is rejected
	resp = doJSON(t, app, "POST", "/api/v1/courses/1/enroll", studentToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEnrollInInactiveCourse(t *testing.T) {
	app := setupTestApp(t)
	_, studentToken := createUser(t, models.RoleStudent, "student@example.com")

	require.NoError(t, database.Database.Db.Create(&models.Course{Code: "CS101", Title: "Closed", IsActive: false}).Error)

	resp := doJSON(t, app, "POST", "/api/v1/courses/1/enroll", studentToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetEnrollmentsScopedToStudent(t *testing.T) {
	app := setupTestApp(t)
	student, studentToken := createUser(t, models.RoleStudent, "student@example.com")
	other, _ := createUser(t, models.RoleStudent, "other@example.com")
	_, teacherToken := createUser(t, models.RoleTeacher, "teacher@example.com")

	course := models.Course{Code: "CS101", Title: "Intro", IsActive: true}
	require.NoError(t, database.Database.Db.Create(&course).Error)
	require.NoError(t, database.Database.Db.Create(&models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentActive}).Error)
	require.NoError(t, database.Database.Db.Create(&models.Enrollment{
		UserID: other.ID, CourseID: course.ID, Status: models.EnrollmentActive}).Error)

	resp := doJSON(t, app, "GET", "/api/v1/courses/enrollments", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := decodeEnvelope(t, resp)["data"].([]interface{})
	assert.Len(t, data, 1)

	resp = doJSON(t, app, "GET", "/api/v1/courses/enrollments", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = decodeEnvelope(t, resp)["data"].([]interface{})
	assert.Len(t, data, 2)
}
