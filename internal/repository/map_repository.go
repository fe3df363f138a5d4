package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pier11/marina-map/internal/model"
)

const mapColumns = "id, name, description, image_path, image_width, image_height, is_active, created_at, updated_at"

// MapRepo provides storage for map records. Name uniqueness among active
// maps has no database constraint; MapService checks it inside the same
// transaction as the write.
type MapRepo struct {
	db   *sql.DB
	lock string
}

func NewMapRepo(db *sql.DB) *MapRepo {
	return &MapRepo{db: db, lock: forUpdate(db)}
}

// CreateTx inserts m and fills ID and CreatedAt.
func (r *MapRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Map) error {
	m.CreatedAt = now()
	m.UpdatedAt = nil
	res, err := tx.ExecContext(ctx,
		`INSERT INTO maps (name, description, image_path, image_width, image_height, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Description, m.ImagePath, m.ImageWidth, m.ImageHeight, m.IsActive, m.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns ErrMapNotFound when no row exists.
func (r *MapRepo) GetByID(ctx context.Context, id uint64) (*model.Map, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDTx reads and locks the map row inside tx.
func (r *MapRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Map, error) {
	return r.get(ctx, tx, id, r.lock)
}

func (r *MapRepo) get(ctx context.Context, q querier, id uint64, lock string) (*model.Map, error) {
	m, err := scanMap(q.QueryRowContext(ctx, "SELECT "+mapColumns+" FROM maps WHERE id = ?"+lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMapNotFound
	}
	return m, err
}

// ActiveNameTakenTx reports whether another active map (id != excludeID)
// already uses name. Pass excludeID 0 on create.
func (r *MapRepo) ActiveNameTakenTx(ctx context.Context, tx *sql.Tx, name string, excludeID uint64) (bool, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM maps WHERE name = ? AND is_active = ? AND id <> ? LIMIT 1"+r.lock,
		name, true, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateTx persists every editable column of m.
func (r *MapRepo) UpdateTx(ctx context.Context, tx *sql.Tx, m *model.Map) error {
	ts := now()
	_, err := tx.ExecContext(ctx,
		`UPDATE maps SET name = ?, description = ?, image_path = ?, image_width = ?, image_height = ?,
		 is_active = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Description, m.ImagePath, m.ImageWidth, m.ImageHeight, m.IsActive, ts, m.ID)
	if err != nil {
		return err
	}
	m.UpdatedAt = &ts
	return nil
}

// DeleteTx removes the map row; positions go with it through the FK.
func (r *MapRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM maps WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMapNotFound
	}
	return nil
}

// List returns maps ordered by id, each with its position count.
func (r *MapRepo) List(ctx context.Context, page Page, activeOnly bool) ([]model.MapWithCount, error) {
	page = page.normalized()
	q := `SELECT m.id, m.name, m.description, m.image_path, m.image_width, m.image_height, m.is_active,
	             m.created_at, m.updated_at,
	             (SELECT COUNT(*) FROM boat_positions p WHERE p.map_id = m.id) AS boat_count
	      FROM maps m`
	args := []any{}
	if activeOnly {
		q += " WHERE m.is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY m.id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MapWithCount{}
	for rows.Next() {
		var mc model.MapWithCount
		m := &mc.Map
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.ImagePath, &m.ImageWidth, &m.ImageHeight,
			&m.IsActive, &m.CreatedAt, &m.UpdatedAt, &mc.BoatCount); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func scanMap(s scanner) (*model.Map, error) {
	var m model.Map
	if err := s.Scan(&m.ID, &m.Name, &m.Description, &m.ImagePath, &m.ImageWidth, &m.ImageHeight,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
