// Package grading scores free-text exam answers. Keyword matching produces
// the marks; Gemini analysis, when enabled, adds a performance summary on
// top and never changes marks.
package grading

import "examly/config"

// Grader grades a submission and persists marks, feedback and a
// GradingResult row.
type Grader interface {
	GradeSubmission(submissionID uint) (*SubmissionResult, error)
}

// NewGrader returns the primary grading service.
func NewGrader() Grader {
	return &KeywordGrader{}
}

// NewAnalyzer returns the optional AI analysis service, or nil when it is
// disabled or unconfigured.
func NewAnalyzer() *GeminiAnalyzer {
	cfg := config.AppConfig
	if cfg == nil || !cfg.EnableGeminiGrading || cfg.GeminiAPIKey == "" {
		return nil
	}
	return NewGeminiAnalyzer(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel)
}
