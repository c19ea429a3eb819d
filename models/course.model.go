package models

import "gorm.io/gorm"

type Course struct {
	gorm.Model
	Code        string `json:"code" gorm:"unique;not null;index"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedByID uint   `json:"created_by_id" gorm:"index"`
	IsActive    bool   `json:"is_active"`
	IsDeleted   bool   `gorm:"default:false"`
}
