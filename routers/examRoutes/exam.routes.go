package examRoutes

import (
	controllers "examly/controllers/exam"
	"examly/middleware"
	"examly/models"
	validators "examly/validators/exam"

	"github.com/gofiber/fiber/v2"
)

// SetupExamRoutes sets up exam and question routes
func SetupExamRoutes(app *fiber.App) {
	examGroup := app.Group("/api/v1/exams")

	examGroup.Get("/", middleware.JWTMiddleware, controllers.GetAllExams)
	examGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.CreateExam(), controllers.CreateExam)

	// Question management (static path before :id)
	examGroup.Post("/questions", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.CreateQuestion(), controllers.CreateQuestion)
	examGroup.Put("/questions/:id", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.QuestionID(), validators.UpdateQuestion(), controllers.UpdateQuestion)
	examGroup.Delete("/questions/:id", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.QuestionID(), controllers.DeleteQuestion)

	examGroup.Get("/:id", middleware.JWTMiddleware, validators.ExamID(), controllers.GetExamDetails)
	examGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.ExamID(), validators.UpdateExam(), controllers.UpdateExam)
	examGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.ExamID(), controllers.DeleteExam)

	examGroup.Get("/:id/start", middleware.JWTMiddleware, middleware.RequireRole(models.RoleStudent), validators.ExamID(), controllers.StartExam)
	examGroup.Get("/:id/questions", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.ExamID(), controllers.GetExamQuestions)
}
