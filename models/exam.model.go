package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Exam struct {
	gorm.Model
	CourseID        uint           `json:"course_id" gorm:"index;not null"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationMinutes uint           `json:"duration_minutes"`
	StartTime       time.Time      `json:"start_time" gorm:"index"`
	EndTime         time.Time      `json:"end_time" gorm:"index"`
	TotalMarks      uint           `json:"total_marks" gorm:"default:0"`
	PassingMarks    uint           `json:"passing_marks" gorm:"default:0"`
	Metadata        datatypes.JSON `json:"metadata"`
	IsPublished     bool           `json:"is_published" gorm:"default:false;index"`
	IsDeleted       bool           `gorm:"default:false"`
	Course          Course         `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// IsActive reports whether the exam window is currently open.
func (e *Exam) IsActive(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// SubmissionDeadline returns the latest instant a submission started at the
// given time may still be handed in.
func (e *Exam) SubmissionDeadline(startedAt time.Time) time.Time {
	deadline := startedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
	if deadline.After(e.EndTime) {
		return e.EndTime
	}
	return deadline
}
