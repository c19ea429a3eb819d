package models

import (
	"gorm.io/gorm"
)

const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentDropped   = "DROPPED"
)

type Enrollment struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID  uint   `json:"course_id" gorm:"index;not null;uniqueIndex:idx_enrollment_user_course"`
	Status    string `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, COMPLETED, DROPPED
	IsDeleted bool   `gorm:"default:false"`
	User      User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course    Course `json:"course" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}
