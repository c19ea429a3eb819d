package authController_test

import (
	"bytes"
	"encoding/json"
	"examly/config"
	"examly/database"
	"examly/models"
	"examly/routers/authRoutes"
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
		SaltRound:       4,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	authRoutes.SetupAuthRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func register(t *testing.T, app *fiber.App, email, password, role string) {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/users/register", fiber.Map{
		"name": "Test User", "email": email, "password": password, "role": role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	app := setupTestApp(t)

	register(t, app, "student@example.com", "secret-password", "")

	var user models.User
	require.NoError(t, database.Database.Db.First(&user, "email = ?", "student@example.com").Error)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "secret-password", user.Password)

	// Duplicate email conflicts
	resp := doJSON(t, app, "POST", "/api/v1/users/register", fiber.Map{
		"name": "Test User", "email": "student@example.com", "password": "secret-password",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRegisterSoftDeletedEmailConflicts(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "student@example.com", "secret-password", "")

	require.NoError(t, database.Database.Db.Model(&models.User{}).
		Where("email = ?", "student@example.com").
		Update("is_deleted", true).Error)

	// The unique index on email still holds; the conflict surfaces as 409
	resp := doJSON(t, app, "POST", "/api/v1/users/register", fiber.Map{
		"name": "Test User", "email": "student@example.com", "password": "secret-password",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/users/register", fiber.Map{
		"name": "Test User", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	errors := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Contains(t, errors, "email")
	assert.Contains(t, errors, "password")
}

func TestLogin(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "student@example.com", "secret-password", "")

	resp := doJSON(t, app, "POST", "/api/v1/users/login", fiber.Map{
		"email": "student@example.com", "password": "secret-password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])

	// A login row is tracked
	var count int64
	database.Database.Db.Model(&models.LoginTracking{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "student@example.com", "secret-password", "")

	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, "POST", "/api/v1/users/login", fiber.Map{
			"email": "student@example.com", "password": "wrong-password",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}

	// Even the right password is rejected while blocked
	resp := doJSON(t, app, "POST", "/api/v1/users/login", fiber.Map{
		"email": "student@example.com", "password": "secret-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, decodeEnvelope(t, resp)["message"], "temporarily blocked")
}

func TestRefreshTokenRotation(t *testing.T) {
	app := setupTestApp(t)
	register(t, app, "student@example.com", "secret-password", "")

	resp := doJSON(t, app, "POST", "/api/v1/users/login", fiber.Map{
		"email": "student@example.com", "password": "secret-password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	refreshToken := tokens["refresh_token"].(string)
	accessToken := tokens["access_token"].(string)

	resp = doJSON(t, app, "POST", "/api/v1/users/token/refresh", fiber.Map{
		"refresh_token": refreshToken,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	rotated := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.NotEmpty(t, rotated["access_token"])
	assert.NotEqual(t, refreshToken, rotated["refresh_token"])

	// Access tokens cannot be used as refresh tokens
	resp = doJSON(t, app, "POST", "/api/v1/users/token/refresh", fiber.Map{
		"refresh_token": accessToken,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
