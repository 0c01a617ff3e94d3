// Package visits is privacy-conscious page view tracking: IPs are salted
// and hashed before storage and Do Not Track is honored.
package visits

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/db"
)

const timeLayout = "2006-01-02 15:04:05"

// Visit is one recorded page view.
type Visit struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

type Stats struct {
	TotalVisitors    int64       `json:"total_visitors"`
	UniqueVisitors   int64       `json:"unique_visitors"`
	VisitorsToday    int64       `json:"visitors_today"`
	VisitorsThisWeek int64       `json:"visitors_this_week"`
	TopPaths         []PathCount `json:"top_paths"`
	RecentVisitors   []Visit     `json:"recent_visitors"`
}

// Recorder writes visits to the database.
type Recorder struct {
	db     *db.DB
	salt   string
	logger *log.Logger
	now    func() time.Time
	// spawn runs a recording off the request path.
	spawn func(func())
}

func NewRecorder(d *db.DB, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		db:     d,
		salt:   RandomToken(),
		logger: logger,
		now:    time.Now,
		spawn:  func(f func()) { go f() },
	}
}

// RandomToken returns 32 random bytes, hex encoded.
func RandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

// HashIP is stable per IP for the life of the process.
func (r *Recorder) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + r.salt))
	return hex.EncodeToString(sum[:])[:16]
}

var skipPrefixes = []string{"/static/", "/images/", "/admin", "/favicon", "/privacy", "/sections/", "/api/", "/fragments/", "/healthz", "/metrics", "/theme/", "/navigate/", "/contact"}

// Middleware records page views, skipping assets, API calls and visitors
// sending DNT.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != "GET" || c.GetHeader("DNT") == "1" || skipped(path) {
			c.Next()
			return
		}
		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		r.spawn(func() {
			if err := r.Record(context.Background(), ip, ua, path); err != nil {
				r.logger.Warn("recording visit failed", "err", err)
			}
		})
		c.Next()
	}
}

func skipped(path string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (r *Recorder) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, r.HashIP(ip), userAgent, path, r.now().UTC().Format(timeLayout))
	return err
}

// Cleanup drops visits older than maxAge and returns how many went.
func (r *Recorder) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-maxAge).Format(timeLayout)
	res, err := r.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up visits: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info("privacy cleanup removed old visits", "rows", n)
	}
	return n, nil
}

func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	now := r.now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.Add(-7 * 24 * time.Hour).Format(timeLayout)

	stats := &Stats{}
	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE substr(timestamp, 1, 10) = ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{weekAgo}},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting visits: %w", err)
		}
	}

	top, err := r.TopPaths(ctx, 10)
	if err != nil {
		return nil, err
	}
	stats.TopPaths = top

	recent, err := r.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	stats.RecentVisitors = recent
	return stats, nil
}

// TopPaths returns the most viewed paths, busiest first.
func (r *Recorder) TopPaths(ctx context.Context, limit int) ([]PathCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(path, ''), COUNT(*) AS views FROM visitors
		GROUP BY path ORDER BY views DESC, path LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading top paths: %w", err)
	}
	defer rows.Close()

	var out []PathCount
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			return nil, fmt.Errorf("scanning top paths: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (r *Recorder) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors ORDER BY timestamp DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		var ts string
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scanning recent visits: %w", err)
		}
		v.Timestamp, _ = time.Parse(timeLayout, ts)
		out = append(out, v)
	}
	return out, rows.Err()
}
