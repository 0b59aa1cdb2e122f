package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostPublished PostStatus = "PUBLISHED"
	PostDraft     PostStatus = "DRAFT"
)

// ParsePostStatus converts a string to a PostStatus, case-insensitively.
func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case PostPublished:
		return PostPublished, nil
	case PostDraft:
		return PostDraft, nil
	}
	return "", fmt.Errorf("unknown post status %q", s)
}

// Post is a blog post.
type Post struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	AuthorID  int64      `json:"authorId,omitempty"`
	Status    PostStatus `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitzero"`
}

// Validate checks the fields required to create or update a post.
func (p *Post) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(p.Author) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return fmt.Errorf("post: %s required", strings.Join(missing, ", "))
	}
	return nil
}

// SortOrder selects how post listings are ordered.
type SortOrder string

const (
	SortNewest SortOrder = "date-desc"
	SortTitle  SortOrder = "alpha-asc"
)

// ParseSortOrder accepts "date-desc" or "alpha-asc"; empty means newest first.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want %s or %s)", s, SortNewest, SortTitle)
}

// SortPosts returns a sorted copy of posts. Ties keep their input order.
func SortPosts(posts []Post, order SortOrder) []Post {
	out := slices.Clone(posts)
	switch order {
	case SortTitle:
		slices.SortStableFunc(out, func(a, b Post) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	default:
		slices.SortStableFunc(out, func(a, b Post) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

// Comment is a comment on a post.
type Comment struct {
	ID        int64     `json:"id,omitempty"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
