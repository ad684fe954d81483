package notes

import (
	"errors"
	"regexp"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidTitle = errors.New("invalid title")
)

// titlePattern accepts CJK unified ideographs, ASCII letters and digits,
// whitespace (the same set JavaScript's \s matches) and . , ! ?
var titlePattern = regexp.MustCompile(
	`^[\x{4e00}-\x{9fa5}a-zA-Z0-9\s\v\x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}.,!?]+$`,
)

// ValidTitle reports whether title is non-empty and made only of allowed characters.
func ValidTitle(title string) bool {
	return titlePattern.MatchString(title)
}

// NewCollection returns an empty collection whose first id is 1.
func NewCollection() *Collection {
	return &Collection{Notes: []Note{}, NextID: 1}
}

// normalize repairs what a loaded collection may be missing: a nil notes
// array or a counter that is absent or behind the highest stored id.
func (c *Collection) normalize() {
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	maxID := 0
	for _, n := range c.Notes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	if c.NextID <= maxID {
		c.NextID = maxID + 1
	}
}

// allocateID hands out the next id and advances the counter.
func (c *Collection) allocateID() int {
	c.normalize()
	id := c.NextID
	c.NextID++
	return id
}

// index returns the position of the first note with the given id, or -1.
func (c *Collection) index(id int) int {
	for i := range c.Notes {
		if c.Notes[i].ID == id {
			return i
		}
	}
	return -1
}
