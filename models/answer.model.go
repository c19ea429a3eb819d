package models

import (
	"gorm.io/gorm"
)

type Answer struct {
	gorm.Model
	SubmissionID   uint     `json:"submission_id" gorm:"index;not null;uniqueIndex:idx_answer_submission_question"`
	QuestionID     uint     `json:"question_id" gorm:"index;not null;uniqueIndex:idx_answer_submission_question"`
	AnswerText     string   `json:"answer_text" gorm:"type:text"`
	MarksObtained  float64  `json:"marks_obtained" gorm:"default:0"`
	MarksAllocated float64  `json:"marks_allocated" gorm:"default:0"`
	Feedback       string   `json:"feedback" gorm:"type:text"`
	IsDeleted      bool     `gorm:"default:false"`
	Question       Question `json:"question" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}
