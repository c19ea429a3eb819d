package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	GradingMethodKeyword    = "KEYWORD"
	GradingMethodAIAssisted = "AI_ASSISTED"
)

// GradingResult stores detailed grading output and optional AI insights for
// a submission.
type GradingResult struct {
	gorm.Model
	SubmissionID        uint           `json:"submission_id" gorm:"uniqueIndex;not null"`
	GradingMethod       string         `json:"grading_method" gorm:"default:'KEYWORD'"` // KEYWORD, AI_ASSISTED
	PerformanceAnalysis datatypes.JSON `json:"performance_analysis"`
	Summary             string         `json:"summary" gorm:"type:text"`
	Suggestions         string         `json:"suggestions" gorm:"type:text"`
	DetailedScores      datatypes.JSON `json:"detailed_scores"`
	IsDeleted           bool           `gorm:"default:false"`
	Submission          Submission     `json:"-" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}
