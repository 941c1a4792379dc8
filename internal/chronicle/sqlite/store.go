// Package sqlite provides a SQLite-backed chronicle storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/emberfall/internal/chronicle"
	"github.com/louisbranch/emberfall/internal/chronicle/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/emberfall/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// maxPathDepth bounds the ancestor walk so a corrupted parent cycle cannot
// loop forever.
const maxPathDepth = 10000

// Store persists chronicle nodes in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite chronicle store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendNode inserts one chronicle node and returns its assigned ID.
func (s *Store) AppendNode(ctx context.Context, node chronicle.Node) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	actionKind := strings.TrimSpace(node.ActionKind)
	if actionKind == "" {
		return 0, fmt.Errorf("action kind is required")
	}
	if node.ParentID < 0 {
		return 0, fmt.Errorf("parent id must not be negative")
	}
	createdAt := node.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO chronicle_nodes (
		   parent_id,
		   action_kind,
		   action_name,
		   narrative,
		   success,
		   state_json,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		node.ParentID,
		actionKind,
		strings.TrimSpace(node.ActionName),
		node.Narrative,
		boolToInt(node.Success),
		node.StateJSON,
		toMillis(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append chronicle node: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append chronicle node id: %w", err)
	}
	return id, nil
}

// GetNode returns one node by ID.
func (s *Store) GetNode(ctx context.Context, id int64) (chronicle.Node, error) {
	if err := ctx.Err(); err != nil {
		return chronicle.Node{}, err
	}
	if s == nil || s.sqlDB == nil {
		return chronicle.Node{}, fmt.Errorf("storage is not configured")
	}
	if id <= 0 {
		return chronicle.Node{}, fmt.Errorf("node id must be greater than zero")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, parent_id, action_kind, action_name, narrative, success, state_json, created_at
		   FROM chronicle_nodes
		  WHERE id = ?`,
		id,
	)
	node, err := scanNode(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chronicle.Node{}, chronicle.ErrNotFound
		}
		return chronicle.Node{}, fmt.Errorf("get chronicle node: %w", err)
	}
	return node, nil
}

// ListChildren returns every direct child of a node, oldest first. ParentID
// zero lists root nodes.
func (s *Store) ListChildren(ctx context.Context, parentID int64) ([]chronicle.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if parentID < 0 {
		return nil, fmt.Errorf("parent id must not be negative")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, parent_id, action_kind, action_name, narrative, success, state_json, created_at
		   FROM chronicle_nodes
		  WHERE parent_id = ?
		  ORDER BY id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chronicle children: %w", err)
	}
	defer rows.Close()

	var nodes []chronicle.Node
	for rows.Next() {
		node, err := scanNode(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list chronicle children: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chronicle children: %w", err)
	}
	return nodes, nil
}

// Path returns the chain from the root ancestor down to the given node.
func (s *Store) Path(ctx context.Context, id int64) ([]chronicle.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var chain []chronicle.Node
	next := id
	for depth := 0; next > 0; depth++ {
		if depth >= maxPathDepth {
			return nil, fmt.Errorf("chronicle path exceeds %d nodes", maxPathDepth)
		}
		node, err := s.GetNode(ctx, next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, node)
		next = node.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func scanNode(scan func(dest ...any) error) (chronicle.Node, error) {
	var node chronicle.Node
	var success int
	var createdAt int64
	err := scan(
		&node.ID,
		&node.ParentID,
		&node.ActionKind,
		&node.ActionName,
		&node.Narrative,
		&success,
		&node.StateJSON,
		&createdAt,
	)
	if err != nil {
		return chronicle.Node{}, err
	}
	node.Success = success != 0
	node.CreatedAt = fromMillis(createdAt)
	return node, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

var _ chronicle.Store = (*Store)(nil)
