package journal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Kind is the role of a journaled item.
type Kind string

const (
	KindArtwork    Kind = "artwork"
	KindTrack      Kind = "track"
	KindCollection Kind = "collection"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("journal: not found")

// Item is an uploaded object.
type Item struct {
	ContentID string
	ReleaseID int64
	Kind      Kind

	// Index is the track index, or -1 for release-level items.
	Index int

	Title  string
	Digest string
	Size   int64

	Registered bool
	CreatedAt  time.Time

	// Node is the bundling node of the owning release. It is filled by
	// queries and ignored by RecordItem.
	Node string
}

// Release is a journaled release upload.
type Release struct {
	ID         int64
	Title      string
	Provider   string
	Node       string
	Address    string
	State      string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      int
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const schema = `
CREATE TABLE IF NOT EXISTS releases (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	provider    TEXT NOT NULL,
	node        TEXT NOT NULL,
	address     TEXT NOT NULL,
	state       TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS items (
	content_id  TEXT PRIMARY KEY,
	release_id  INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	track_index INTEGER NOT NULL,
	title       TEXT NOT NULL,
	digest      TEXT NOT NULL,
	size        INTEGER NOT NULL,
	registered  INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS items_pending ON items (kind, registered);
CREATE INDEX IF NOT EXISTS items_digest ON items (digest);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// Config holds the parameters for opening a journal.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize defaults to 2.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Journal is a SQLite-backed upload journal. It is safe for concurrent
// use.
type Journal struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	now    func() time.Time
	path   string
}

// Open opens or creates the journal database.
func Open(cfg Config) (*Journal, error) {
	if cfg.Path == "" {
		return nil, errors.New("journal: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: opening %s: %w", cfg.Path, err)
	}

	logger.Debug("journal opened", "path", cfg.Path, "pool_size", poolSize)

	return &Journal{pool: pool, logger: logger, now: now, path: cfg.Path}, nil
}

func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("journal: schema: %w", err)
	}
	return nil
}

// Close closes the database. It blocks until all connections are
// returned.
func (j *Journal) Close() error {
	if err := j.pool.Close(); err != nil {
		return fmt.Errorf("journal: closing %s: %w", j.path, err)
	}
	return nil
}

// BeginRelease records the start of a release upload and returns its id.
func (j *Journal) BeginRelease(ctx context.Context, title, provider, node, address string) (int64, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("journal: begin release: %w", err)
	}
	defer j.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO releases (title, provider, node, address, state, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{title, provider, node, address, "started", j.now().UnixMilli()},
		})
	if err != nil {
		return 0, fmt.Errorf("journal: begin release: %w", err)
	}
	return conn.LastInsertRowID(), nil
}

// FinishRelease records the final state of a release upload.
func (j *Journal) FinishRelease(ctx context.Context, releaseID int64, state string) error {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("journal: finish release: %w", err)
	}
	defer j.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE releases SET state = ?, finished_at = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{state, j.now().UnixMilli(), releaseID}})
	if err != nil {
		return fmt.Errorf("journal: finish release: %w", err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("journal: release %d: %w", releaseID, ErrNotFound)
	}
	return nil
}

// RecordItem stores an uploaded item. Recording the same content id
// twice replaces the earlier row.
func (j *Journal) RecordItem(ctx context.Context, item Item) (err error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("journal: record item: %w", err)
	}
	defer j.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("journal: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	created := item.CreatedAt
	if created.IsZero() {
		created = j.now()
	}

	return sqlitex.Execute(conn,
		`INSERT OR REPLACE INTO items
		(content_id, release_id, kind, track_index, title, digest, size, registered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				item.ContentID,
				item.ReleaseID,
				string(item.Kind),
				item.Index,
				item.Title,
				item.Digest,
				item.Size,
				boolInt(item.Registered),
				created.UnixMilli(),
			},
		})
}

// MarkRegistered flags contentID as registered.
func (j *Journal) MarkRegistered(ctx context.Context, contentID string) error {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("journal: mark registered: %w", err)
	}
	defer j.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE items SET registered = 1 WHERE content_id = ?`,
		&sqlitex.ExecOptions{Args: []any{contentID}})
	if err != nil {
		return fmt.Errorf("journal: mark registered: %w", err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("journal: item %s: %w", contentID, ErrNotFound)
	}
	return nil
}

const itemColumns = `i.content_id, i.release_id, i.kind, i.track_index, i.title,
	i.digest, i.size, i.registered, i.created_at, r.node`

// Pending returns the tracks that have not been registered, oldest
// first.
func (j *Journal) Pending(ctx context.Context) ([]Item, error) {
	return j.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN releases r ON r.id = i.release_id
		WHERE i.kind = ? AND i.registered = 0
		ORDER BY i.created_at, i.release_id, i.track_index`,
		string(KindTrack))
}

// Items returns every item of a release in upload order.
func (j *Journal) Items(ctx context.Context, releaseID int64) ([]Item, error) {
	return j.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN releases r ON r.id = i.release_id
		WHERE i.release_id = ?
		ORDER BY i.created_at, i.track_index`,
		releaseID)
}

// FindByDigest returns the most recent item with the given digest.
func (j *Journal) FindByDigest(ctx context.Context, digest string) (*Item, error) {
	items, err := j.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN releases r ON r.id = i.release_id
		WHERE i.digest = ?
		ORDER BY i.created_at DESC LIMIT 1`,
		digest)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (j *Journal) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer j.pool.Put(conn)

	var items []Item
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			items = append(items, Item{
				ContentID:  stmt.ColumnText(0),
				ReleaseID:  stmt.ColumnInt64(1),
				Kind:       Kind(stmt.ColumnText(2)),
				Index:      stmt.ColumnInt(3),
				Title:      stmt.ColumnText(4),
				Digest:     stmt.ColumnText(5),
				Size:       stmt.ColumnInt64(6),
				Registered: stmt.ColumnInt(7) != 0,
				CreatedAt:  time.UnixMilli(stmt.ColumnInt64(8)),
				Node:       stmt.ColumnText(9),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return items, nil
}

// Releases returns the most recent releases, newest first.
func (j *Journal) Releases(ctx context.Context, limit int) ([]Release, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: releases: %w", err)
	}
	defer j.pool.Put(conn)

	var releases []Release
	err = sqlitex.Execute(conn,
		`SELECT r.id, r.title, r.provider, r.node, r.address, r.state, r.started_at,
			COALESCE(r.finished_at, 0), COUNT(i.content_id)
		FROM releases r LEFT JOIN items i ON i.release_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rel := Release{
					ID:        stmt.ColumnInt64(0),
					Title:     stmt.ColumnText(1),
					Provider:  stmt.ColumnText(2),
					Node:      stmt.ColumnText(3),
					Address:   stmt.ColumnText(4),
					State:     stmt.ColumnText(5),
					StartedAt: time.UnixMilli(stmt.ColumnInt64(6)),
					Items:     stmt.ColumnInt(8),
				}
				if finished := stmt.ColumnInt64(7); finished != 0 {
					rel.FinishedAt = time.UnixMilli(finished)
				}
				releases = append(releases, rel)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("journal: releases: %w", err)
	}
	return releases, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
