package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Zachkp/folio/internal/db"
)

// Cache keeps the last good answer for each query in SQLite. With an
// upstream it refreshes on every fetch and falls back to the stored copy
// when the upstream fails; without one it serves only what was seeded.
type Cache struct {
	db       *db.DB
	upstream Fetcher
	logger   *log.Logger
}

func NewCache(d *db.DB, upstream Fetcher, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{db: d, upstream: upstream, logger: logger}
}

func (c *Cache) Fetch(ctx context.Context, query string, dst any) error {
	if c.upstream != nil {
		var raw json.RawMessage
		err := c.upstream.Fetch(ctx, query, &raw)
		if err == nil {
			if err := c.store(ctx, query, raw); err != nil {
				c.logger.Warn("content cache write failed", "err", err)
			}
			return decodeRaw(raw, dst)
		}
		c.logger.Warn("content upstream failed, trying cache", "err", err)
		if cerr := c.read(ctx, query, dst); cerr == nil {
			return nil
		}
		return err
	}
	return c.read(ctx, query, dst)
}

func decodeRaw(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (c *Cache) read(ctx context.Context, query string, dst any) error {
	var body string
	err := c.db.QueryRowContext(ctx, `SELECT body FROM content_cache WHERE query = ?`, query).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("content cache: nothing stored for query: %w", ErrUnknownQuery)
	}
	if err != nil {
		return fmt.Errorf("reading content cache: %w", err)
	}
	return json.Unmarshal([]byte(body), dst)
}

func (c *Cache) store(ctx context.Context, query string, raw json.RawMessage) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO content_cache (query, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at
	`, query, string(raw), time.Now().UTC())
	return err
}

// Seed stores both queries' answers from doc.
func (c *Cache) Seed(ctx context.Context, doc *Document) error {
	for _, q := range []string{ProjectsQuery, SkillsQuery} {
		var raw json.RawMessage
		if err := doc.answer(q, &raw); err != nil {
			return err
		}
		if err := c.store(ctx, q, raw); err != nil {
			return fmt.Errorf("seeding content cache: %w", err)
		}
	}
	return nil
}
