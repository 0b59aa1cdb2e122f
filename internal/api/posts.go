package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/me/quill/pkg/model"
)

// ListPosts returns all posts.
func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	var out []model.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost returns one post.
func (c *Client) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPostsByAuthor returns the posts written by the given user.
func (c *Client) ListPostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	var out []model.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/author/%d", authorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePost creates a post and returns it as stored.
func (c *Client) CreatePost(ctx context.Context, p *model.Post) (*model.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out model.Post
	if err := c.do(ctx, http.MethodPost, "/posts", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost replaces a post and returns it as stored.
func (c *Client) UpdatePost(ctx context.Context, id int64, p *model.Post) (*model.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out model.Post
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost deletes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}
