package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/me/quill/pkg/model"
)

// ListComments returns the comments on a post.
func (c *Client) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComment posts a comment on behalf of author.
func (c *Client) CreateComment(ctx context.Context, postID int64, author, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("comment: content required")
	}
	var out model.Comment
	in := model.Comment{Author: author, Content: content}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
