package main

import (
	"examly/config"
	"examly/database"
	authRoutes "examly/routers/authRoutes"
	courseRoutes "examly/routers/courseRoutes"
	examRoutes "examly/routers/examRoutes"
	submissionRoutes "examly/routers/submissionRoutes"
	userRoutes "examly/routers/userRoutes"
	"examly/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	database.ConnectRedis()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files from the public folder
	app.Static("/", "./public")

	authRoutes.SetupAuthRoutes(app)
	userRoutes.SetupUserRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	examRoutes.SetupExamRoutes(app)
	submissionRoutes.SetupSubmissionRoutes(app)

	// Background grading queue and exam lifecycle cron
	utils.StartGradingWorker()
	utils.StartExamScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
