package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionInProgress = "IN_PROGRESS"
	SubmissionSubmitted  = "SUBMITTED"
	SubmissionGraded     = "GRADED"
)

type Submission struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_submission_user_exam"`
	ExamID        uint       `json:"exam_id" gorm:"index;not null;uniqueIndex:idx_submission_user_exam"`
	StartedAt     time.Time  `json:"started_at"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Status        string     `json:"status" gorm:"default:'IN_PROGRESS';index"` // IN_PROGRESS, SUBMITTED, GRADED
	ObtainedMarks float64    `json:"obtained_marks" gorm:"default:0"`
	TotalMarks    float64    `json:"total_marks" gorm:"default:0"`
	Percentage    float64    `json:"percentage" gorm:"default:0"`
	IsGraded      bool       `json:"is_graded" gorm:"default:false;index"`
	GradedAt      *time.Time `json:"graded_at"`
	IsDeleted     bool       `gorm:"default:false"`
	User          User       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Exam          Exam       `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Answers       []Answer   `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

// CalculatePercentage recomputes the percentage from obtained/total marks.
func (s *Submission) CalculatePercentage() float64 {
	if s.TotalMarks > 0 {
		s.Percentage = s.ObtainedMarks / s.TotalMarks * 100
	} else {
		s.Percentage = 0
	}
	return s.Percentage
}
