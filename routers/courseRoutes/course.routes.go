package courseRoutes

import (
	controllers "examly/controllers/course"
	"examly/middleware"
	"examly/models"
	validators "examly/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all course and enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/api/v1/courses")

	// Listing and details
	courseGroup.Get("/", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole(models.RoleTeacher), validators.CreateCourse(), controllers.CreateCourse)

	// Enrollments (static path before :id)
	courseGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetEnrollments)

	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, middleware.RequireRole(models.RoleStudent), validators.CourseID(), controllers.EnrollInCourse)
}
