package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pier11/marina-map/internal/model"
)

const positionColumns = "id, map_id, x, y, width, height, rotation, color, stroke_color, stroke_width, is_visible, created_at, updated_at"

// PositionRepo stores the rectangles drawn on a map. Which listing holds a
// position is recorded on the listing, see BoatRepo.SetPositionTx.
type PositionRepo struct {
	db   *sql.DB
	lock string
}

func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db, lock: forUpdate(db)}
}

// Create inserts p and fills ID and CreatedAt.
func (r *PositionRepo) Create(ctx context.Context, p *model.BoatPosition) error {
	p.CreatedAt = now()
	p.UpdatedAt = nil
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boat_positions (map_id, x, y, width, height, rotation, color, stroke_color, stroke_width, is_visible, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.MapID, p.X, p.Y, p.Width, p.Height, p.Rotation, p.Color, p.StrokeColor, p.StrokeWidth, p.IsVisible, p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns ErrPositionNotFound when no row exists.
func (r *PositionRepo) GetByID(ctx context.Context, id uint64) (*model.BoatPosition, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDTx reads and locks the position row inside tx.
func (r *PositionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.BoatPosition, error) {
	return r.get(ctx, tx, id, r.lock)
}

func (r *PositionRepo) get(ctx context.Context, q querier, id uint64, lock string) (*model.BoatPosition, error) {
	p, err := scanPosition(q.QueryRowContext(ctx, "SELECT "+positionColumns+" FROM boat_positions WHERE id = ?"+lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	return p, err
}

// ListByMap returns a page of a map's positions ordered by id.
func (r *PositionRepo) ListByMap(ctx context.Context, mapID uint64, page Page) ([]*model.BoatPosition, error) {
	page = page.normalized()
	return r.list(ctx, "SELECT "+positionColumns+" FROM boat_positions WHERE map_id = ? ORDER BY id LIMIT ? OFFSET ?",
		mapID, page.Limit, page.Skip)
}

// ListAllByMap returns every position on a map ordered by id.
func (r *PositionRepo) ListAllByMap(ctx context.Context, mapID uint64) ([]*model.BoatPosition, error) {
	return r.list(ctx, "SELECT "+positionColumns+" FROM boat_positions WHERE map_id = ? ORDER BY id", mapID)
}

func (r *PositionRepo) list(ctx context.Context, q string, args ...any) ([]*model.BoatPosition, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.BoatPosition{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByMap is the number of positions placed on a map.
func (r *PositionRepo) CountByMap(ctx context.Context, mapID uint64) (int, error) {
	return r.count(ctx, r.db, mapID)
}

// CountByMapTx is CountByMap inside tx.
func (r *PositionRepo) CountByMapTx(ctx context.Context, tx *sql.Tx, mapID uint64) (int, error) {
	return r.count(ctx, tx, mapID)
}

func (r *PositionRepo) count(ctx context.Context, q querier, mapID uint64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM boat_positions WHERE map_id = ?", mapID).Scan(&n)
	return n, err
}

// Update persists the geometry and styling of p.
func (r *PositionRepo) Update(ctx context.Context, p *model.BoatPosition) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE boat_positions SET x = ?, y = ?, width = ?, height = ?, rotation = ?, color = ?, stroke_color = ?,
		 stroke_width = ?, is_visible = ?, updated_at = ? WHERE id = ?`,
		p.X, p.Y, p.Width, p.Height, p.Rotation, p.Color, p.StrokeColor, p.StrokeWidth, p.IsVisible, ts, p.ID)
	if err != nil {
		return err
	}
	p.UpdatedAt = &ts
	return nil
}

// DeleteTx removes a position row. Callers unpair any holder first.
func (r *PositionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM boat_positions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func scanPosition(s scanner) (*model.BoatPosition, error) {
	var p model.BoatPosition
	if err := s.Scan(&p.ID, &p.MapID, &p.X, &p.Y, &p.Width, &p.Height, &p.Rotation, &p.Color, &p.StrokeColor,
		&p.StrokeWidth, &p.IsVisible, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
