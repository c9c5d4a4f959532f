package blog

import (
	"context"
	"fmt"
	"math"
)

// Default pagination for getAllBlogs.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Service implements the blog operations on top of a Store.
type Service struct {
	store Store
}

// NewService returns a Service backed by st.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// Pagination describes the window returned by List.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

// ListResponse is the result of getAllBlogs.
type ListResponse struct {
	Posts      []BlogPost `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// List returns a page of posts, newest first. The page and the count are two
// separate reads, so under concurrent writes TotalCount may not match the
// set the page was cut from.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	if err := Validate(req); err != nil {
		return ListResponse{}, err
	}
	page, limit, onlyPublished := DefaultPage, DefaultLimit, true
	if req.Page != nil {
		page = *req.Page
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	if req.OnlyPublished != nil {
		onlyPublished = *req.OnlyPublished
	}

	// A window starting beyond the largest representable offset is empty.
	posts := []BlogPost{}
	if page-1 <= math.MaxInt/limit {
		var err error
		posts, err = s.store.ListPosts(ctx, ListFilter{
			Limit:         limit,
			Offset:        (page - 1) * limit,
			OnlyPublished: onlyPublished,
		})
		if err != nil {
			return ListResponse{}, fmt.Errorf("list posts: %w", err)
		}
	}
	total, err := s.store.CountPosts(ctx, onlyPublished)
	if err != nil {
		return ListResponse{}, fmt.Errorf("count posts: %w", err)
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return ListResponse{
		Posts: posts,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalPages: TotalPages(total, limit),
			TotalCount: total,
		},
	}, nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// GetBySlug returns the post with the given slug. Drafts are returned too:
// anyone holding a draft's slug can read it through this call.
func (s *Service) GetBySlug(ctx context.Context, req SlugRequest) (BlogPost, error) {
	return s.store.GetPostBySlug(ctx, req.Slug)
}

// Create inserts a post authored by the calling admin. A slug collision is
// detected by the store's unique constraint and reported as ErrConflict.
func (s *Service) Create(ctx context.Context, ident *Identity, req CreateRequest) (BlogPost, error) {
	admin, err := s.Authorize(ctx, ident)
	if err != nil {
		return BlogPost{}, err
	}
	if err := Validate(req); err != nil {
		return BlogPost{}, err
	}
	published := false
	if req.Published != nil {
		published = *req.Published
	}
	return s.store.CreatePost(ctx, NewPost{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Published: published,
		AuthorID:  admin.ID,
	})
}

// Update applies the supplied fields to an existing post and stamps updatedAt.
func (s *Service) Update(ctx context.Context, ident *Identity, req UpdateRequest) (BlogPost, error) {
	if _, err := s.Authorize(ctx, ident); err != nil {
		return BlogPost{}, err
	}
	if err := Validate(req); err != nil {
		return BlogPost{}, err
	}
	return s.store.UpdatePost(ctx, *req.ID, req.patch())
}

// Delete removes a post permanently.
func (s *Service) Delete(ctx context.Context, ident *Identity, req DeleteRequest) (DeleteResponse, error) {
	if _, err := s.Authorize(ctx, ident); err != nil {
		return DeleteResponse{}, err
	}
	if err := Validate(req); err != nil {
		return DeleteResponse{}, err
	}
	if err := s.store.DeletePost(ctx, *req.ID); err != nil {
		return DeleteResponse{}, err
	}
	return DeleteResponse{Success: true}, nil
}
