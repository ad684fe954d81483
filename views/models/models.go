package models

import "time"

// NoteView represents a note for template rendering
type NoteView struct {
	ID         int
	Title      string
	HTML       string // content rendered from markdown
	CreateTime time.Time
	UpdateTime time.Time
}
