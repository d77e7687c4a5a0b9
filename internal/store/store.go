// Package store provides the SQLite persistence layer for novels and their
// chapters.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/storyreader/internal/novel"

	"modernc.org/sqlite"
)

// ErrNotFound is returned when a novel does not exist.
var ErrNotFound = errors.New("novel not found")

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// foldFunc is the SQL name of a Unicode-aware lower(); SQLite's own lower()
// and LIKE only fold ASCII.
const foldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Store is the novel database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path, applies pragmas and the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	dsn := path
	if path != ":memory:" {
		// Connection-scoped pragmas must be set on every pooled connection.
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// InsertNovel validates n, fills in missing ids and creation time, and
// stores the novel with all of its chapters.
func (s *Store) InsertNovel(ctx context.Context, n *novel.Novel) error {
	if err := n.Validate(); err != nil {
		return err
	}
	n.AssignIDs()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.SortChapters()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var imageURL sql.NullString
	if n.ImageURL != nil {
		imageURL = sql.NullString{String: *n.ImageURL, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO novels (id, title, category, cover_image_url, image_url, code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Category, n.CoverImageURL, imageURL, n.Code, n.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert novel %s: %w", n.ID, err)
	}

	for _, c := range n.Chapters {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chapters (id, novel_id, chapter_number, title, content)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, n.ID, c.ChapterNumber, c.Title, c.Content)
		if err != nil {
			return fmt.Errorf("insert chapter %d of %s: %w", c.ChapterNumber, n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNovel returns the novel with the given id and its chapters in
// chapter-number order.
func (s *Store) GetNovel(ctx context.Context, id string) (*novel.Novel, error) {
	novels, err := s.queryNovels(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(novels) == 0 {
		return nil, ErrNotFound
	}
	return novels[0], nil
}

// ListNovels returns every novel, newest first.
func (s *Store) ListNovels(ctx context.Context) ([]*novel.Novel, error) {
	return s.queryNovels(ctx, "")
}

// SearchNovels returns novels whose title contains query, ignoring case,
// or whose code equals the integer query starts with.
func (s *Store) SearchNovels(ctx context.Context, query string) ([]*novel.Novel, error) {
	where := `WHERE instr(` + foldFunc + `(title), ?) > 0`
	args := []any{strings.ToLower(query)}
	if code, ok := leadingInt(query); ok && code != 0 {
		where += ` OR code = ?`
		args = append(args, code)
	}
	return s.queryNovels(ctx, where, args...)
}

// DeleteNovel removes a novel and its chapters.
func (s *Store) DeleteNovel(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM novels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete novel %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete novel %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountNovels returns the number of stored novels.
func (s *Store) CountNovels(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM novels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count novels: %w", err)
	}
	return n, nil
}

func (s *Store) queryNovels(ctx context.Context, where string, args ...any) ([]*novel.Novel, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, category, cover_image_url, image_url, code, created_at
		FROM novels `+where+`
		ORDER BY created_at DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query novels: %w", err)
	}
	defer rows.Close()

	var novels []*novel.Novel
	byID := make(map[string]*novel.Novel)
	for rows.Next() {
		var (
			n        novel.Novel
			imageURL sql.NullString
			created  int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Category, &n.CoverImageURL, &imageURL, &n.Code, &created); err != nil {
			return nil, fmt.Errorf("scan novel: %w", err)
		}
		if imageURL.Valid {
			v := imageURL.String
			n.ImageURL = &v
		}
		n.CreatedAt = time.UnixMilli(created).UTC()
		n.Chapters = []novel.Chapter{}
		novels = append(novels, &n)
		byID[n.ID] = &n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate novels: %w", err)
	}
	if len(novels) == 0 {
		return novels, nil
	}

	if err := s.loadChapters(ctx, byID); err != nil {
		return nil, err
	}
	return novels, nil
}

func (s *Store) loadChapters(ctx context.Context, byID map[string]*novel.Novel) error {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, novel_id, chapter_number, title, content
		FROM chapters
		WHERE novel_id IN (`+placeholders+`)
		ORDER BY novel_id, chapter_number ASC`, ids...)
	if err != nil {
		return fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       novel.Chapter
			novelID string
		)
		if err := rows.Scan(&c.ID, &novelID, &c.ChapterNumber, &c.Title, &c.Content); err != nil {
			return fmt.Errorf("scan chapter: %w", err)
		}
		if n, ok := byID[novelID]; ok {
			n.Chapters = append(n.Chapters, c)
		}
	}
	return rows.Err()
}

// leadingInt parses the integer at the start of s the way a lenient
// numeric search box would: leading whitespace and a sign are allowed and
// parsing stops at the first non-digit.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 18 {
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
