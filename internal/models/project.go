package models

import (
	"time"
)

// Project is a named container owning zero or more tickets.
//
// CreatedBy tracks the last user who successfully created or updated the
// project, not the original creator. Both the web form and the API re-stamp
// it on every write.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a new Project with initialized timestamps.
func NewProject(title, createdBy string) *Project {
	now := time.Now()
	return &Project{
		Title:     title,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
