package grading

import (
	"examly/database"
	"examly/models"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Analysis is the structured outcome of an AI review of a graded submission.
type Analysis struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"areas_for_improvement"`
	Suggestions  []string `json:"suggestions"`
	FullAnalysis string   `json:"full_analysis"`
}

// GeminiAnalyzer calls the Gemini generateContent API to produce a
// performance summary for an already graded submission. It never grades;
// keyword grading stays the source of truth for marks.
type GeminiAnalyzer struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewGeminiAnalyzer builds an analyzer against the given API base URL.
func NewGeminiAnalyzer(baseURL, apiKey, model string) *GeminiAnalyzer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	return &GeminiAnalyzer{client: client, apiKey: apiKey, model: model}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeSubmission sends the graded submission to Gemini and parses the
// structured feedback out of the response text.
func (a *GeminiAnalyzer) AnalyzeSubmission(submissionID uint) (*Analysis, error) {
	db := database.Database.Db

	var submission models.Submission
	if err := db.Where("id = ? AND is_deleted = false", submissionID).
		Preload("Exam").
		First(&submission).Error; err != nil {
		return nil, fmt.Errorf("submission %d not found: %w", submissionID, err)
	}

	if !submission.IsGraded {
		return nil, fmt.Errorf("submission %d must be graded first", submissionID)
	}

	var answers []models.Answer
	if err := db.Where("submission_id = ? AND is_deleted = false", submissionID).
		Preload("Question").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	prompt := buildAnalysisPrompt(&submission, answers)

	var result geminiResponse
	resp, err := a.client.R().
		SetQueryParam("key", a.apiKey).
		SetBody(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", a.model))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		if result.Error != nil {
			return nil, fmt.Errorf("gemini API error: %s", result.Error.Message)
		}
		return nil, fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini API returned an empty response")
	}

	analysisText := result.Candidates[0].Content.Parts[0].Text

	return &Analysis{
		Summary:      extractSection(analysisText, "SUMMARY"),
		Strengths:    extractBulletPoints(analysisText, "STRENGTHS"),
		Improvements: extractBulletPoints(analysisText, "AREAS FOR IMPROVEMENT"),
		Suggestions:  extractBulletPoints(analysisText, "SUGGESTIONS"),
		FullAnalysis: analysisText,
	}, nil
}

func buildAnalysisPrompt(submission *models.Submission, answers []models.Answer) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an educational assessment expert. Analyze this student's exam performance and provide constructive feedback.

Exam: %s
Score: %.2f/%.2f (%.2f%%)

Detailed Answers:
`, submission.Exam.Title, submission.ObtainedMarks, submission.TotalMarks, submission.Percentage)

	for idx, answer := range answers {
		fmt.Fprintf(&b, `
Question %d: %s
Expected Answer: %s
Student's Answer: %s
Score: %.2f/%.2f
Initial Feedback: %s

`, idx+1, answer.Question.QuestionText, answer.Question.ExpectedAnswer,
			answer.AnswerText, answer.MarksObtained, answer.MarksAllocated, answer.Feedback)
	}

	b.WriteString(`
Please provide:
1. SUMMARY: A brief overall assessment (2-3 sentences)
2. STRENGTHS: What the student did well (3-4 points)
3. AREAS FOR IMPROVEMENT: What needs work (3-4 points)
4. SUGGESTIONS: Specific actionable recommendations (3-4 points)

Keep the feedback encouraging, constructive, and specific. Focus on learning outcomes.
`)

	return b.String()
}

var knownSections = []string{"SUMMARY", "STRENGTHS", "AREAS FOR IMPROVEMENT", "SUGGESTIONS"}

// extractSection returns the text between a section header and the next
// known header (or end of text).
func extractSection(text, name string) string {
	headerPattern := regexp.MustCompile(`(?i)(?:\d+\.\s*)?\*{0,2}` + regexp.QuoteMeta(name) + `\*{0,2}\s*:\*{0,2}`)
	loc := headerPattern.FindStringIndex(text)
	if loc == nil {
		return "Analysis not available"
	}

	rest := text[loc[1]:]
	end := len(rest)
	for _, other := range knownSections {
		if strings.EqualFold(other, name) {
			continue
		}
		otherPattern := regexp.MustCompile(`(?i)(?:\d+\.\s*)?\*{0,2}` + regexp.QuoteMeta(other) + `\*{0,2}\s*:\*{0,2}`)
		if l := otherPattern.FindStringIndex(rest); l != nil && l[0] < end {
			end = l[0]
		}
	}

	section := strings.TrimSpace(rest[:end])
	if section == "" {
		return "Analysis not available"
	}
	return section
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:\d+\.|[-•*])\s*`)

// extractBulletPoints returns the bulleted or numbered items of a section.
func extractBulletPoints(text, name string) []string {
	section := extractSection(text, name)
	if section == "Analysis not available" {
		return nil
	}

	var points []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if bulletPrefix.MatchString(trimmed) {
			point := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))
			if point != "" {
				points = append(points, point)
			}
		}
	}

	// Unformatted sections come back as a single item
	if len(points) == 0 {
		return []string{section}
	}
	return points
}
