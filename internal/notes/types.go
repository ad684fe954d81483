package notes

import (
	"bytes"
	"encoding/json"
	"time"
)

// timeLayout is ISO-8601 in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Note represents a single titled note
type Note struct {
	ID         int       `bson:"id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Content    string    `bson:"content" json:"content"`
	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

// MarshalJSON keeps the field order fixed and writes timestamps in UTC
// with milliseconds, e.g. 2024-03-01T08:15:00.000Z.
func (n Note) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(struct {
		ID         int    `json:"id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
		CreateTime string `json:"create_time"`
		UpdateTime string `json:"update_time"`
	}{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		CreateTime: formatTime(n.CreateTime),
		UpdateTime: formatTime(n.UpdateTime),
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Collection is the full ordered set of notes, persisted as one unit.
// NextID is omitted by older files and derived on load.
type Collection struct {
	Notes  []Note `bson:"notes" json:"notes"`
	NextID int    `bson:"next_id" json:"next_id,omitempty"`
}

// CreateNoteInput is the input for creating a note
type CreateNoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateNoteInput is the input for replacing a note's title and content
type UpdateNoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// now returns the current instant truncated to what the wire format keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
