package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionEssay       = "essay"
	QuestionShortAnswer = "short_answer"
	QuestionParagraph   = "paragraph"
)

type Question struct {
	gorm.Model
	ExamID         uint           `json:"exam_id" gorm:"index;not null"`
	QuestionType   string         `json:"question_type" gorm:"default:'essay'"` // essay, short_answer, paragraph
	QuestionText   string         `json:"question_text" gorm:"type:text"`
	ExpectedAnswer string         `json:"expected_answer" gorm:"type:text"` // model answer or key points
	Keywords       datatypes.JSON `json:"keywords"`                         // JSON array of grading keywords
	Marks          uint           `json:"marks"`
	OrderIndex     int            `json:"order_index" gorm:"default:0"`
	Metadata       datatypes.JSON `json:"metadata"`
	IsDeleted      bool           `gorm:"default:false"`
	Exam           Exam           `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}
