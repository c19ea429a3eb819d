package submissionRoutes

import (
	controllers "examly/controllers/submission"
	"examly/middleware"
	"examly/models"
	validators "examly/validators/submission"

	"github.com/gofiber/fiber/v2"
)

// SetupSubmissionRoutes sets up submission and results routes
func SetupSubmissionRoutes(app *fiber.App) {
	subGroup := app.Group("/api/v1/submissions")

	subGroup.Post("/submit_exam", middleware.JWTMiddleware, middleware.RequireRole(models.RoleStudent), validators.SubmitExam(), controllers.SubmitExam)
	subGroup.Get("/", middleware.JWTMiddleware, validators.SubmissionList(), controllers.GetSubmissions)
	subGroup.Get("/:id", middleware.JWTMiddleware, validators.SubmissionID(), controllers.GetSubmissionDetails)
	subGroup.Get("/:id/results", middleware.JWTMiddleware, validators.SubmissionID(), controllers.GetSubmissionResults)
}
