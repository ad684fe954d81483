package notes

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
)

type Service struct {
	store Store
	md    goldmark.Markdown

	// mu serializes load-mutate-save cycles so concurrent writers
	// cannot overwrite each other's changes.
	mu sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		md:    goldmark.New(),
	}
}

// List returns every note in storage order
func (s *Service) List(ctx context.Context) ([]Note, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	return c.Notes, nil
}

// Get retrieves a note by ID
func (s *Service) Get(ctx context.Context, id int) (*Note, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	i := c.index(id)
	if i < 0 {
		return nil, ErrNoteNotFound
	}
	note := c.Notes[i]
	return &note, nil
}

// Create validates the title, then appends a new note with a fresh id
func (s *Service) Create(ctx context.Context, input CreateNoteInput) (*Note, error) {
	if !ValidTitle(input.Title) {
		return nil, ErrInvalidTitle
	}

	var note Note
	err := s.mutate(ctx, func(c *Collection) error {
		ts := now()
		note = Note{
			ID:         c.allocateID(),
			Title:      input.Title,
			Content:    input.Content,
			CreateTime: ts,
			UpdateTime: ts,
		}
		c.Notes = append(c.Notes, note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Update replaces title and content of an existing note. ID and
// CreateTime are never touched.
func (s *Service) Update(ctx context.Context, id int, input UpdateNoteInput) (*Note, error) {
	if !ValidTitle(input.Title) {
		return nil, ErrInvalidTitle
	}

	var note Note
	err := s.mutate(ctx, func(c *Collection) error {
		i := c.index(id)
		if i < 0 {
			return ErrNoteNotFound
		}
		c.Notes[i].Title = input.Title
		c.Notes[i].Content = input.Content
		c.Notes[i].UpdateTime = now()
		note = c.Notes[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Delete removes the first note with the given ID
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.mutate(ctx, func(c *Collection) error {
		i := c.index(id)
		if i < 0 {
			return ErrNoteNotFound
		}
		c.Notes = append(c.Notes[:i], c.Notes[i+1:]...)
		return nil
	})
}

// RenderMarkdown converts markdown content to HTML
func (s *Service) RenderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return content // Return raw content on error
	}
	return buf.String()
}

// Ping checks that the backing storage can be loaded.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	return err
}

// mutate runs one load-mutate-save cycle. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, fn func(c *Collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	if err := fn(c); err != nil {
		return err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}
