package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/google/uuid"
)

// CreateClient inserts c, assigning an ID and creation time when missing.
func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.ClientActive
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid client status %q", c.Status)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO clients (id, name, status, contact_name, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Name, string(c.Status), c.ContactName, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

// GetClient returns the client with the given ID.
func (s *Store) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id, name, status, contact_name, created_at
		FROM clients WHERE id = ?`), id)

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading client: %w", err)
	}
	return c, nil
}

// ListClients returns clients ordered by name. An empty status lists all.
func (s *Store) ListClients(ctx context.Context, status model.ClientStatus) ([]model.Client, error) {
	query := `SELECT id, name, status, contact_name, created_at FROM clients`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// FindClient resolves a client by exact ID or case-insensitive name.
func (s *Store) FindClient(ctx context.Context, idOrName string) (*model.Client, error) {
	if c, err := s.GetClient(ctx, idOrName); err == nil {
		return c, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, s.q(`SELECT id, name, status, contact_name, created_at
		FROM clients WHERE LOWER(name) = LOWER(?)`), idOrName)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding client: %w", err)
	}
	return c, nil
}

// SetClientStatus changes a client's status.
func (s *Store) SetClientStatus(ctx context.Context, id string, status model.ClientStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid client status %q", status)
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE clients SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("updating client status: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(r rowScanner) (*model.Client, error) {
	var c model.Client
	var status, created string
	if err := r.Scan(&c.ID, &c.Name, &status, &c.ContactName, &created); err != nil {
		return nil, err
	}
	c.Status = model.ClientStatus(status)
	c.CreatedAt = parseTime(created)
	return &c, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
