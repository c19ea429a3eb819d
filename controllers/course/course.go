package courseController

import (
	"examly/database"
	"examly/middleware"
	"examly/models"
	"examly/utils"
	courseValidators "examly/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateCourse creates a course owned by the requesting teacher.
func CreateCourse(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := c.Locals("validatedCourse").(*courseValidators.CreateCourseRequest)

	db := database.Database.Db

	// Course codes are unique
	if err := db.Where("code = ? AND is_deleted = ?", reqData.Code, false).First(&models.Course{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course code already exists!", nil)
	}

	course := models.Course{
		Code:        reqData.Code,
		Title:       reqData.Title,
		Description: reqData.Description,
		CreatedByID: user.ID,
		IsActive:    true,
	}

	if err := db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// GetAllCourses lists courses. Students only see active ones.
func GetAllCourses(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	reqData := c.Locals("validatedList").(*courseValidators.ListRequest)

	page, limit := 1, 10
	if reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset, limit := utils.Paginate(page, limit)

	db := database.Database.Db

	query := db.Model(&models.Course{}).Where("is_deleted = ?", false)
	if role != models.RoleTeacher {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var courses []models.Course
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func GetCourseDetails(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

// EnrollInCourse enrolls the requesting student into a course.
func EnrollInCourse(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_active = ? AND is_deleted = ?", courseID, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Duplicate enrollment check
	var existing models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, course.ID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Already enrolled in this course!", nil)
	}

	enrollment := models.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   models.EnrollmentActive,
	}

	if err := db.Create(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	enrollment.Course = course

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Successfully enrolled in course!", enrollment)
}

// GetEnrollments lists enrollments. Students see their own, teachers see
// every enrollment.
func GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)

	db := database.Database.Db

	query := db.Where("is_deleted = ?", false).Preload("Course")
	if role != models.RoleTeacher {
		query = query.Where("user_id = ?", userID)
	}

	var enrollments []models.Enrollment
	if err := query.Order("created_at desc").Find(&enrollments).Error; err != nil && err != gorm.ErrRecordNotFound {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}
