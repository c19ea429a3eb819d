package utils

import (
	"examly/config"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SendEmail sends an HTML email via SMTP.
func SendEmail(to []string, subject string, htmlBody string) error {
	cfg := config.AppConfig

	from := cfg.EmailSender
	password := cfg.Password
	if from == "" || password == "" {
		log.Println("Email sender not configured, skipping email:", subject)
		return nil
	}

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Examly <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, cfg.SMTPHost)

	err := smtp.SendMail(cfg.SMTPHost+":"+cfg.SMTPPort, auth, from, to, []byte(msg))
	if err != nil {
		log.Printf("Error sending email %q: %v", subject, err)
		return err
	}
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.content h2 { color: #1A2B4C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.score-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #4C7DD1; margin: 20px 0; font-size: 18px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>EXAMLY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Examly. All rights reserved.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendWelcomeEmail greets a newly registered user.
func SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your account has been created. You can now browse courses, enroll,
		and take exams.</p>
		<p>Good luck with your studies!</p>`, name)

	return SendEmail([]string{email}, "Welcome to Examly", getEmailTemplate("Welcome!", body))
}

// SendGradeEmail notifies a student that their submission has been graded.
func SendGradeEmail(email, name, examTitle string, obtained, total, percentage float64) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your submission for <strong>%s</strong> has been graded.</p>
		<div class="score-box">Score: %.2f / %.2f (%.2f%%)</div>
		<p>Log in to view detailed feedback for each answer.</p>`,
		name, examTitle, obtained, total, percentage)

	return SendEmail([]string{email}, "Your exam has been graded: "+examTitle, getEmailTemplate("Exam Graded", body))
}
