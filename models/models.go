package models

import (
	"time"
)

// MaxImagesPerMemory caps how many photos a single guest submission may carry.
const MaxImagesPerMemory = 10

// DefaultName is stored when a guest leaves the name field blank.
const DefaultName = "Anonymous"

// Memory is one guest submission. It is created once and never modified.
type Memory struct {
	ID        string    `json:"id" gorm:"primarykey;size:64"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Images    []Image   `json:"images" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time `json:"createdAt" gorm:"index;not null"`
}

// Image points at the stored bytes of one uploaded photo. Data is always a URL
// reference: a path on this API for disk storage, or the object's public URL.
type Image struct {
	ID          string `json:"-" gorm:"primarykey;size:64"`
	MemoryID    string `json:"-" gorm:"size:64;index;not null"`
	Position    int    `json:"-" gorm:"not null"`
	Key         string `json:"-" gorm:"column:blob_key;size:512"`
	Data        string `json:"data" gorm:"size:2048;not null"`
	ContentType string `json:"contentType" gorm:"size:255;not null"`
}

// User is an administrative principal. PasswordHash is a bcrypt hash.
type User struct {
	ID           string `json:"id" gorm:"primarykey;size:64"`
	Username     string `json:"username" gorm:"size:255;not null;unique"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time
}
