package models

import (
	"time"
)

type User struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	Email    string    `json:"email" gorm:"type:text;not null"`
	Provider string    `json:"provider" gorm:"type:text;not null;index:user_provider_subject,unique"`
	Subject  string    `json:"subject" gorm:"type:text;not null;index:user_provider_subject,unique"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Bookmark struct {
	ID     string    `json:"id" gorm:"primaryKey;type:text"`
	Title  string    `json:"title" gorm:"type:text;not null"`
	URL    string    `json:"url" gorm:"type:text;not null"`
	UserID string    `json:"user_id" gorm:"type:text;not null;index"`
	User   User      `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CDate  time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}
