package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carewell-health/carewell-ops-api/internal/models"
)

// ClientRepository reads client records.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs the repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Exists reports whether the client id is present.
func (r *ClientRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT 1 FROM clients WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check client: %w", err)
	}
	return true, nil
}

// FindByID loads a client record.
func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	const query = `SELECT id, display_name, client_type, active, created_at, updated_at
FROM clients WHERE id = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &client, nil
}
