package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eringen/quill/blog"
)

const postColumns = `id, title, slug, excerpt, content, published, author_id, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(rs rowScanner) (blog.BlogPost, error) {
	var (
		p                    blog.BlogPost
		excerpt              sql.NullString
		published            int
		createdAt, updatedAt sqlTime
	)
	if err := rs.Scan(&p.ID, &p.Title, &p.Slug, &excerpt, &p.Content, &published, &p.AuthorID, &createdAt, &updatedAt); err != nil {
		return blog.BlogPost{}, err
	}
	if excerpt.Valid {
		p.Excerpt = &excerpt.String
	}
	p.Published = published == 1
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ListPosts returns one page of posts ordered by creation time, newest first.
func (s *Store) ListPosts(ctx context.Context, f blog.ListFilter) ([]blog.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts`
	if f.OnlyPublished {
		query += ` WHERE published = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]blog.BlogPost, 0, min(f.Limit, 64))
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

// CountPosts counts every post matching the published filter.
func (s *Store) CountPosts(ctx context.Context, onlyPublished bool) (int, error) {
	query := `SELECT COUNT(*) FROM blog_posts`
	if onlyPublished {
		query += ` WHERE published = 1`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// GetPostBySlug returns a post by slug regardless of published status.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (blog.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.BlogPost{}, ErrNotFound
	}
	if err != nil {
		return blog.BlogPost{}, fmt.Errorf("get post by slug: %w", err)
	}
	return p, nil
}

// GetPostByID returns a post by id regardless of published status.
func (s *Store) GetPostByID(ctx context.Context, id int64) (blog.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.BlogPost{}, ErrNotFound
	}
	if err != nil {
		return blog.BlogPost{}, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// CreatePost inserts a post and returns the stored row. The UNIQUE(slug)
// constraint decides collisions; a violation returns ErrSlugTaken.
func (s *Store) CreatePost(ctx context.Context, np blog.NewPost) (blog.BlogPost, error) {
	now := s.timestamp()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO blog_posts (title, slug, excerpt, content, published, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		np.Title, np.Slug, np.Excerpt, np.Content, boolInt(np.Published), np.AuthorID, now, now)
	p, err := scanPost(row)
	if isUniqueViolation(err) {
		return blog.BlogPost{}, ErrSlugTaken
	}
	if err != nil {
		return blog.BlogPost{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// UpdatePost applies the non-nil fields of patch to post id, stamps
// updated_at and returns the stored row.
func (s *Store) UpdatePost(ctx context.Context, id int64, patch blog.PostPatch) (blog.BlogPost, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.timestamp()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Slug != nil {
		sets = append(sets, "slug = ?")
		args = append(args, *patch.Slug)
	}
	if patch.Excerpt != nil {
		sets = append(sets, "excerpt = ?")
		args = append(args, *patch.Excerpt)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Published != nil {
		sets = append(sets, "published = ?")
		args = append(args, boolInt(*patch.Published))
	}
	args = append(args, id)

	query := `UPDATE blog_posts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + postColumns
	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return blog.BlogPost{}, ErrNotFound
	case isUniqueViolation(err):
		return blog.BlogPost{}, ErrSlugTaken
	case err != nil:
		return blog.BlogPost{}, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// DeletePost removes a post by id. Deleting a missing post returns ErrNotFound.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
