package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore persists cache entries in PostgreSQL for durability across
// restarts.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a store with a pgx connection pool.
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres cache store connected")
	return &PostgresStore{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations directory.
func (s *PostgresStore) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("migration applied", zap.String("file", f))
	}
	return nil
}

// Put upserts an entry keyed by (owner_id, fingerprint).
func (s *PostgresStore) Put(ctx context.Context, e Entry) error {
	tokens, err := json.Marshal(e.Tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	var contextJSON []byte
	if len(e.Context) > 0 {
		if contextJSON, err = json.Marshal(e.Context); err != nil {
			return fmt.Errorf("marshal context: %w", err)
		}
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO cache_entries (id, fingerprint, owner_id, request, tokens, response, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, fingerprint)
		DO UPDATE SET request = $4, tokens = $5, response = $6, context = $7, created_at = $8`,
		e.ID, e.Fingerprint, e.OwnerID, e.Request, tokens, e.Response, contextJSON, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store entry: %w", err)
	}
	return nil
}

// GetByFingerprint returns the owner's entry for the fingerprint, or
// ErrNotFound when no row exists.
func (s *PostgresStore) GetByFingerprint(ctx context.Context, ownerID, fingerprint string) (Entry, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, fingerprint, owner_id, request, tokens, response, context, created_at
		FROM cache_entries
		WHERE owner_id = $1 AND fingerprint = $2`, ownerID, fingerprint)

	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListByOwner returns all entries for an owner, newest first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, fingerprint, owner_id, request, tokens, response, context, created_at
		FROM cache_entries
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var tokens, contextJSON []byte
	if err := row.Scan(&e.ID, &e.Fingerprint, &e.OwnerID, &e.Request,
		&tokens, &e.Response, &contextJSON, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &e.Tokens); err != nil {
			return Entry{}, fmt.Errorf("decode tokens: %w", err)
		}
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
			return Entry{}, fmt.Errorf("decode context: %w", err)
		}
	}
	return e, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}
