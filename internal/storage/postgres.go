package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phishguard/internal/model"
)

var ErrNotFound = errors.New("not found")

// Postgres is the adapter over the persistence backend: the append-only
// scan history ledger plus user profiles. Each history append is a single
// atomic insert; entries are immutable and independent, so no multi-row
// transactions are needed.
type Postgres struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() { p.Pool.Close() }

// InitSchema creates the tables on first run. seq is a bigserial used as
// the stable tie-breaker when two scans land on the same created_at.
func (p *Postgres) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS scan_history (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		url TEXT NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		model_used TEXT NOT NULL,
		features JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		seq BIGSERIAL
	);

	CREATE INDEX IF NOT EXISTS idx_scan_history_user_created
		ON scan_history (user_id, created_at DESC, seq DESC);
	`
	_, err := p.Pool.Exec(ctx, schema)
	return err
}

// AppendScan inserts one verdict into the ledger and returns the stored
// entry. Failure here never invalidates the verdict already shown.
func (p *Postgres) AppendScan(ctx context.Context, ownerID uuid.UUID, v model.Verdict) (*model.HistoryEntry, error) {
	features, err := json.Marshal(v.Features)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}

	entry := model.HistoryEntry{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Verdict: v,
	}

	err = p.Pool.QueryRow(ctx, `
		INSERT INTO scan_history (id, user_id, url, is_phishing, confidence_score, model_used, features, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`, entry.ID, ownerID, v.URL, v.IsPhishing, v.Confidence, string(v.Model), features, v.ProducedAt).Scan(&entry.Seq)
	if err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}
	return &entry, nil
}

// ListScans returns entries most-recent-first. page.Limit <= 0 lists all,
// which stats derivation and export-all rely on.
func (p *Postgres) ListScans(ctx context.Context, ownerID uuid.UUID, f model.HistoryFilter, page model.Page) ([]model.HistoryEntry, error) {
	query := `
		SELECT id, user_id, url, is_phishing, confidence_score, model_used, features, created_at, seq
		FROM scan_history
		WHERE user_id = $1`
	args := []any{ownerID}

	query, args = appendFilter(query, args, f)
	query += " ORDER BY created_at DESC, seq DESC"

	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var modelUsed string
		var features []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Verdict.URL, &e.Verdict.IsPhishing,
			&e.Verdict.Confidence, &modelUsed, &features, &e.Verdict.ProducedAt, &e.Seq); err != nil {
			return nil, err
		}
		e.Verdict.Model = model.ModelID(modelUsed)
		if len(features) > 0 {
			_ = json.Unmarshal(features, &e.Verdict.Features)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountScans counts entries matching the filter, for pagination totals.
func (p *Postgres) CountScans(ctx context.Context, ownerID uuid.UUID, f model.HistoryFilter) (int, error) {
	query := `SELECT COUNT(*) FROM scan_history WHERE user_id = $1`
	args := []any{ownerID}
	query, args = appendFilter(query, args, f)

	var count int
	err := p.Pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func appendFilter(query string, args []any, f model.HistoryFilter) (string, []any) {
	if f.Text != "" {
		args = append(args, "%"+f.Text+"%")
		query += fmt.Sprintf(" AND url ILIKE $%d", len(args))
	}
	switch f.Label {
	case model.LabelPhishing:
		query += " AND is_phishing"
	case model.LabelSafe:
		query += " AND NOT is_phishing"
	}
	return query, args
}

// CreateUser registers a profile with an already-hashed password.
func (p *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	_, err = p.Pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, preferences, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.FullName, u.PasswordHash, prefs, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail is the login lookup.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.scanUser(ctx, `
		SELECT id, email, full_name, password_hash, preferences, created_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email)
}

// GetUser fetches a profile by ID.
func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return p.scanUser(ctx, `
		SELECT id, email, full_name, password_hash, preferences, created_at
		FROM users WHERE id = $1
	`, id)
}

func (p *Postgres) scanUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	var prefs []byte
	err := p.Pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &prefs, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		_ = json.Unmarshal(prefs, &u.Preferences)
	}
	return &u, nil
}

// UpdateProfile changes the mutable profile fields.
func (p *Postgres) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, preferences map[string]any) error {
	prefs, err := json.Marshal(preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	tag, err := p.Pool.Exec(ctx, `
		UPDATE users SET full_name = $2, preferences = $3 WHERE id = $1
	`, id, fullName, prefs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
