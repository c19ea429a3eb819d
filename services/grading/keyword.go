package grading

import (
	"encoding/json"
	"examly/database"
	"examly/models"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// At most 70% of a question's marks come from keyword matching, the
	// remaining 30% from content density.
	maxMarksForKeywordMatch = 0.7
	densityWeight           = 0.3

	maxExtractedKeywords = 10
)

var wordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "should": {}, "could": {},
	"may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "it": {}, "its": {}, "they": {}, "them": {}, "their": {},
}

// AnswerResult holds the per-answer grading outcome.
type AnswerResult struct {
	QuestionID      uint    `json:"question_id"`
	MarksObtained   float64 `json:"marks_obtained"`
	MarksAllocated  float64 `json:"marks_allocated"`
	KeywordMatchPct float64 `json:"keyword_match_percentage"`
	DensityScore    float64 `json:"density_score"`
	Feedback        string  `json:"feedback"`
}

// SubmissionResult holds the grading outcome for a whole submission.
type SubmissionResult struct {
	SubmissionID  uint           `json:"submission_id"`
	TotalObtained float64        `json:"total_obtained"`
	TotalMarks    float64        `json:"total_marks"`
	Percentage    float64        `json:"percentage"`
	AnswerResults []AnswerResult `json:"answer_results"`
}

// KeywordGrader scores free-text answers by keyword overlap and content
// density against the question's expected answer.
type KeywordGrader struct{}

// GradeAnswer grades a single answer. Keywords fall back to the most
// frequent terms of the expected answer when the question carries none.
func (g *KeywordGrader) GradeAnswer(answerText, expectedAnswer string, keywords []string, marks uint) AnswerResult {
	answer := strings.ToLower(strings.TrimSpace(answerText))
	expected := strings.ToLower(strings.TrimSpace(expectedAnswer))

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		lowered = extractKeywords(expected, maxExtractedKeywords)
	}

	keywordScore, missing := calculateKeywordMatch(answer, lowered)
	densityScore := calculateContentDensity(answer, expected)

	keywordMarks := keywordScore * maxMarksForKeywordMatch * float64(marks)
	densityMarks := densityScore * densityWeight * float64(marks)

	return AnswerResult{
		MarksObtained:   round2(keywordMarks + densityMarks),
		MarksAllocated:  float64(marks),
		KeywordMatchPct: round2(keywordScore * 100),
		DensityScore:    round2(densityScore * 100),
		Feedback:        generateFeedback(keywordScore, densityScore, missing),
	}
}

// GradeSubmission grades every answer of a submission, persists marks and
// feedback, and stores a GradingResult. Re-grading overwrites previous
// marks, it never doubles them.
func (g *KeywordGrader) GradeSubmission(submissionID uint) (*SubmissionResult, error) {
	db := database.Database.Db

	var submission models.Submission
	if err := db.Where("id = ? AND is_deleted = false", submissionID).First(&submission).Error; err != nil {
		return nil, fmt.Errorf("submission %d not found: %w", submissionID, err)
	}

	var answers []models.Answer
	if err := db.Where("submission_id = ? AND is_deleted = false", submissionID).
		Preload("Question").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	totalObtained := 0.0
	results := make([]AnswerResult, 0, len(answers))

	for i := range answers {
		answer := &answers[i]
		question := answer.Question

		var keywords []string
		if len(question.Keywords) > 0 {
			if err := json.Unmarshal(question.Keywords, &keywords); err != nil {
				keywords = nil
			}
		}

		result := g.GradeAnswer(answer.AnswerText, question.ExpectedAnswer, keywords, question.Marks)
		result.QuestionID = question.ID

		answer.MarksObtained = result.MarksObtained
		answer.MarksAllocated = result.MarksAllocated
		answer.Feedback = result.Feedback
		if err := db.Save(answer).Error; err != nil {
			return nil, err
		}

		totalObtained += result.MarksObtained
		results = append(results, result)
	}

	now := time.Now()
	submission.ObtainedMarks = round2(totalObtained)
	submission.CalculatePercentage()
	submission.Status = models.SubmissionGraded
	submission.IsGraded = true
	submission.GradedAt = &now
	if err := db.Save(&submission).Error; err != nil {
		return nil, err
	}

	if err := storeGradingResult(db, submission.ID, results); err != nil {
		return nil, err
	}

	return &SubmissionResult{
		SubmissionID:  submission.ID,
		TotalObtained: submission.ObtainedMarks,
		TotalMarks:    submission.TotalMarks,
		Percentage:    round2(submission.Percentage),
		AnswerResults: results,
	}, nil
}

func storeGradingResult(db *gorm.DB, submissionID uint, results []AnswerResult) error {
	detailed, err := json.Marshal(results)
	if err != nil {
		return err
	}

	var existing models.GradingResult
	err = db.Where("submission_id = ?", submissionID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&models.GradingResult{
			SubmissionID:   submissionID,
			GradingMethod:  models.GradingMethodKeyword,
			DetailedScores: datatypes.JSON(detailed),
		}).Error
	}
	if err != nil {
		return err
	}

	existing.GradingMethod = models.GradingMethodKeyword
	existing.DetailedScores = datatypes.JSON(detailed)
	return db.Save(&existing).Error
}

// extractKeywords returns the most frequent non-stopword terms of the text.
func extractKeywords(text string, maxKeywords int) []string {
	words := wordPattern.FindAllString(text, -1)

	freq := make(map[string]int)
	order := make([]string, 0, len(words))
	for _, word := range words {
		if _, skip := stopWords[word]; skip {
			continue
		}
		if _, seen := freq[word]; !seen {
			order = append(order, word)
		}
		freq[word]++
	}

	// Stable sort keeps first-occurrence order for equal frequencies
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// calculateKeywordMatch returns the fraction of keywords present in the
// answer and the keywords that are missing.
func calculateKeywordMatch(answerText string, keywords []string) (float64, []string) {
	if len(keywords) == 0 {
		return 0.5, nil // default score when nothing to match against
	}

	matches := 0
	var missing []string
	for _, keyword := range keywords {
		if strings.Contains(answerText, keyword) {
			matches++
		} else {
			missing = append(missing, keyword)
		}
	}

	return float64(matches) / float64(len(keywords)), missing
}

// calculateContentDensity scores the answer length against the expected
// answer length with diminishing returns for very long answers.
func calculateContentDensity(answerText, expectedAnswer string) float64 {
	answerWords := len(strings.Fields(answerText))
	expectedWords := len(strings.Fields(expectedAnswer))

	if expectedWords == 0 {
		return 0.5
	}

	lengthRatio := math.Min(float64(answerWords)/float64(expectedWords), 1.5)

	switch {
	case lengthRatio < 0.3:
		// too short
		return lengthRatio / 0.3 * 0.5
	case lengthRatio > 1.5:
		// too long, slightly penalized
		return 0.9
	default:
		return 0.7 + (lengthRatio-0.3)*0.3/1.2
	}
}

// generateFeedback builds the textual feedback for an answer.
func generateFeedback(keywordScore, densityScore float64, missingKeywords []string) string {
	var parts []string

	switch {
	case keywordScore >= 0.7:
		parts = append(parts, "Excellent coverage of key concepts.")
	case keywordScore >= 0.5:
		parts = append(parts, "Good coverage of main points, but some key concepts are missing.")
	default:
		parts = append(parts, "Several important concepts are not addressed.")
		if len(missingKeywords) > 0 {
			sample := missingKeywords
			if len(sample) > 3 {
				sample = sample[:3]
			}
			parts = append(parts, fmt.Sprintf("Consider including: %s.", strings.Join(sample, ", ")))
		}
	}

	if densityScore >= 0.7 {
		parts = append(parts, "Answer length and detail are appropriate.")
	} else if densityScore < 0.4 {
		parts = append(parts, "Answer could be more detailed and comprehensive.")
	}

	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
