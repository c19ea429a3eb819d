package authController

import (
	"errors"
	"examly/config"
	"examly/database"
	"examly/middleware"
	"examly/models"
	"examly/utils"
	authValidators "examly/validators/auth"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Register(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRegister").(*authValidators.RegisterRequest)

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Role:     reqData.Role,
		Password: string(hashedPassword),
	}

	if err := db.Create(&newUser).Error; err != nil {
		// The unique index still guards soft-deleted rows
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}

	go utils.SendWelcomeEmail(newUser.Email, newUser.Name)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidators.LoginRequest)

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	// Check if the user is blocked
	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(time.Now()) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	// Failed attempts reset after a quiet period
	if user.LastFailedLogin != nil && time.Since(*user.LastFailedLogin) > 15*time.Minute {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
		db.Save(&user)
	}

	// Validate password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		user.FailedLoginAttempts++
		now := time.Now()
		user.LastFailedLogin = &now

		// Block user after 3 failed attempts
		if user.FailedLoginAttempts >= 3 {
			user.IsBlocked = true
			unblockTime := now.Add(1 * time.Minute)
			user.BlockedUntil = &unblockTime
		}

		if err := db.Save(&user).Error; err != nil {
			log.Printf("Error updating failed login state: %v", err)
		}

		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	// Update last login time
	user.LastLogin = time.Now()
	user.FailedLoginAttempts = 0
	user.IsBlocked = false
	user.BlockedUntil = nil
	if err := db.Save(&user).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}

	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}

	tracking := models.LoginTracking{
		UserID:    user.ID,
		IPAddress: ip,
		Device:    c.Get("User-Agent"),
		Timestamp: time.Now(),
	}
	if err := db.Create(&tracking).Error; err != nil {
		log.Printf("Error recording login tracking: %v", err)
	}

	tokens, err := middleware.GenerateTokenPair(&user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate tokens!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken rotates a refresh token into a new token pair. The used
// refresh token is blacklisted so it cannot be replayed.
func RefreshToken(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRefresh").(*authValidators.RefreshRequest)

	claims, err := middleware.ParseToken(reqData.RefreshToken)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired refresh token!", nil)
	}

	if typ, _ := claims["typ"].(string); typ != middleware.TokenTypeRefresh {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token type!", nil)
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && database.IsTokenBlacklisted(jti) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Refresh token has been revoked!", nil)
	}

	userID := uint(claims["userId"].(float64))

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	tokens, err := middleware.GenerateTokenPair(&user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate tokens!", nil)
	}

	// Rotate: the old refresh token is no longer usable
	if jti != "" {
		if exp, ok := claims["exp"].(float64); ok {
			if err := database.BlacklistToken(jti, time.Unix(int64(exp), 0)); err != nil {
				log.Printf("Error blacklisting refresh token: %v", err)
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Token refreshed.", tokens)
}

// Logout revokes the current access token and, when provided, the refresh
// token.
func Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	if exp, ok := c.Locals("tokenExp").(time.Time); ok && jti != "" {
		if err := database.BlacklistToken(jti, exp); err != nil {
			log.Printf("Error blacklisting access token: %v", err)
		}
	}

	reqData := new(struct {
		RefreshToken string `json:"refresh_token"`
	})
	if err := c.BodyParser(reqData); err == nil && reqData.RefreshToken != "" {
		if claims, err := middleware.ParseToken(reqData.RefreshToken); err == nil {
			refreshJti, _ := claims["jti"].(string)
			if exp, ok := claims["exp"].(float64); ok && refreshJti != "" {
				if err := database.BlacklistToken(refreshJti, time.Unix(int64(exp), 0)); err != nil {
					log.Printf("Error blacklisting refresh token: %v", err)
				}
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully.", nil)
}

func LoginHistoryList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := c.Locals("validatedList").(*authValidators.ListRequest)

	page, limit := 1, 10
	if reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset, limit := utils.Paginate(page, limit)

	db := database.Database.Db

	var total int64
	db.Model(&models.LoginTracking{}).Where("user_id = ? AND is_deleted = ?", userID, false).Count(&total)

	var history []models.LoginTracking
	if err := db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("timestamp desc").
		Offset(offset).Limit(limit).
		Find(&history).Error; err != nil && err != gorm.ErrRecordNotFound {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login history fetched successfully!", fiber.Map{
		"history": history,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
