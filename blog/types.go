package blog

import (
	"context"
	"time"
)

// RoleAdmin is the only role allowed to mutate posts.
const RoleAdmin = "admin"

// BlogPost is a stored post as returned to callers.
type BlogPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   *string   `json:"excerpt"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is an account row. Users are created out of band and only read here.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name when set, otherwise the email.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// Identity is the caller as resolved by the session or token layer.
// A nil *Identity means the request carried no valid session.
type Identity struct {
	Email string
	Name  string
}

// ListFilter selects a page of posts.
type ListFilter struct {
	Limit         int
	Offset        int
	OnlyPublished bool
}

// NewPost is the data needed to insert a post.
type NewPost struct {
	Title     string
	Slug      string
	Excerpt   *string
	Content   string
	Published bool
	AuthorID  int64
}

// PostPatch carries the fields of an update. Nil fields are left unchanged.
type PostPatch struct {
	Title     *string
	Slug      *string
	Excerpt   *string
	Content   *string
	Published *bool
}

// Store is the persistence boundary used by Service. Implementations report
// missing rows with an error matching ErrNotFound and slug collisions with an
// error matching ErrConflict.
type Store interface {
	ListPosts(ctx context.Context, f ListFilter) ([]BlogPost, error)
	CountPosts(ctx context.Context, onlyPublished bool) (int, error)
	GetPostBySlug(ctx context.Context, slug string) (BlogPost, error)
	CreatePost(ctx context.Context, p NewPost) (BlogPost, error)
	UpdatePost(ctx context.Context, id int64, patch PostPatch) (BlogPost, error)
	DeletePost(ctx context.Context, id int64) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
}
