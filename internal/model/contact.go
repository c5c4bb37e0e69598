package model

import "time"

type Contact struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	BirthDate      time.Time  `json:"birth_date"`
	AdditionalInfo *string    `json:"additional_info,omitempty"`
	UserID         int64      `json:"-"`
}

type ContactCreateRequest struct {
	FirstName      string  `json:"first_name" binding:"required,max=64"`
	LastName       string  `json:"last_name" binding:"required,max=64"`
	Email          string  `json:"email" binding:"required,email"`
	Phone          string  `json:"phone" binding:"required,max=32"`
	BirthDate      string  `json:"birth_date" binding:"required"`
	AdditionalInfo *string `json:"additional_info"`
}

type ContactUpdateRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	BirthDate      *string `json:"birth_date"`
	AdditionalInfo *string `json:"additional_info"`
}
