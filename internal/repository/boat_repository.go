package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pier11/marina-map/internal/model"
)

const boatColumns = "id, boat_index, name, customer_name, size, make_model, vehicle_type, section, notes, position_id, created_at, updated_at"

// boatSearchColumns are OR'd together by BoatFilter.Search.
var boatSearchColumns = []string{"name", "customer_name", "make_model", "vehicle_type", "size", "notes"}

// BoatFilter narrows List. Zero values mean "no filter".
type BoatFilter struct {
	Search     string // case-insensitive substring over boatSearchColumns
	MappedOnly *bool  // exact match on whether the listing holds a position
	Section    string // exact match after upper-casing
	Page       Page
}

// BoatRepo stores boat listings and owns the listing<->position pairing.
type BoatRepo struct {
	db   *sql.DB
	lock string
}

func NewBoatRepo(db *sql.DB) *BoatRepo {
	return &BoatRepo{db: db, lock: forUpdate(db)}
}

// Create inserts an unpaired listing and fills ID and CreatedAt. A taken
// index yields ErrDuplicate.
func (r *BoatRepo) Create(ctx context.Context, b *model.BoatListing) error {
	b.PositionID = nil
	b.CreatedAt = now()
	b.UpdatedAt = nil
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boat_listings (boat_index, name, customer_name, size, make_model, vehicle_type, section, notes, position_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		b.Index, b.Name, b.CustomerName, b.Size, b.MakeModel, b.VehicleType, b.Section, b.Notes, b.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns ErrBoatNotFound when no row exists.
func (r *BoatRepo) GetByID(ctx context.Context, id uint64) (*model.BoatListing, error) {
	return r.getOne(ctx, r.db, "id = ?", id)
}

// GetByIDTx reads and locks the listing row inside tx.
func (r *BoatRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.BoatListing, error) {
	return r.getOne(ctx, tx, "id = ?"+r.lock, id)
}

// GetByIndex looks a listing up by its marina index.
func (r *BoatRepo) GetByIndex(ctx context.Context, index int) (*model.BoatListing, error) {
	return r.getOne(ctx, r.db, "boat_index = ?", index)
}

// HolderOfPositionTx returns the listing currently holding positionID, or
// nil when the position is free. The read happens inside tx so callers
// see the occupancy they are about to write against.
func (r *BoatRepo) HolderOfPositionTx(ctx context.Context, tx *sql.Tx, positionID uint64) (*model.BoatListing, error) {
	b, err := r.getOne(ctx, tx, "position_id = ?"+r.lock, positionID)
	if errors.Is(err, ErrBoatNotFound) {
		return nil, nil
	}
	return b, err
}

func (r *BoatRepo) getOne(ctx context.Context, q querier, where string, args ...any) (*model.BoatListing, error) {
	b, err := scanBoat(q.QueryRowContext(ctx, "SELECT "+boatColumns+" FROM boat_listings WHERE "+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBoatNotFound
	}
	return b, err
}

// Update persists the descriptive columns of b. The pairing is left alone;
// it only changes through SetPositionTx.
func (r *BoatRepo) Update(ctx context.Context, b *model.BoatListing) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE boat_listings SET boat_index = ?, name = ?, customer_name = ?, size = ?, make_model = ?,
		 vehicle_type = ?, section = ?, notes = ?, updated_at = ? WHERE id = ?`,
		b.Index, b.Name, b.CustomerName, b.Size, b.MakeModel, b.VehicleType, b.Section, b.Notes, ts, b.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	b.UpdatedAt = &ts
	return nil
}

// SetPositionTx is the single write path for the pairing: it points the
// listing at positionID, or unpairs it when positionID is nil. Writing a
// new position implicitly releases the previous one. A position already
// held by another listing yields ErrDuplicate.
func (r *BoatRepo) SetPositionTx(ctx context.Context, tx *sql.Tx, b *model.BoatListing, positionID *uint64) error {
	ts := now()
	res, err := tx.ExecContext(ctx,
		"UPDATE boat_listings SET position_id = ?, updated_at = ? WHERE id = ?",
		positionID, ts, b.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBoatNotFound
	}
	b.PositionID = positionID
	b.UpdatedAt = &ts
	return nil
}

// DeleteTx removes the listing row.
func (r *BoatRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM boat_listings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBoatNotFound
	}
	return nil
}

// List returns listings matching f ordered by index.
func (r *BoatRepo) List(ctx context.Context, f BoatFilter) ([]*model.BoatListing, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		pat := likeContains(s)
		ors := make([]string, 0, len(boatSearchColumns))
		for _, col := range boatSearchColumns {
			ors = append(ors, "LOWER("+col+") LIKE LOWER(?) ESCAPE '!'")
			args = append(args, pat)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if f.MappedOnly != nil {
		if *f.MappedOnly {
			where = append(where, "position_id IS NOT NULL")
		} else {
			where = append(where, "position_id IS NULL")
		}
	}
	if s := strings.ToUpper(strings.TrimSpace(f.Section)); s != "" {
		where = append(where, "section = ?")
		args = append(args, s)
	}

	q := "SELECT " + boatColumns + " FROM boat_listings"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.normalized()
	q += " ORDER BY boat_index ASC LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.BoatListing{}
	for rows.Next() {
		b, err := scanBoat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListPairedOnMap returns every listing holding a position on mapID,
// together with that position, ordered by position id.
func (r *BoatRepo) ListPairedOnMap(ctx context.Context, mapID uint64) ([]model.BoatWithPosition, error) {
	const q = `SELECT b.id, b.boat_index, b.name, b.customer_name, b.size, b.make_model, b.vehicle_type, b.section,
	                  b.notes, b.position_id, b.created_at, b.updated_at,
	                  p.id, p.map_id, p.x, p.y, p.width, p.height, p.rotation, p.color, p.stroke_color,
	                  p.stroke_width, p.is_visible, p.created_at, p.updated_at
	           FROM boat_listings b
	           JOIN boat_positions p ON p.id = b.position_id
	           WHERE p.map_id = ?
	           ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, q, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BoatWithPosition{}
	for rows.Next() {
		var (
			b model.BoatListing
			p model.BoatPosition
		)
		if err := rows.Scan(&b.ID, &b.Index, &b.Name, &b.CustomerName, &b.Size, &b.MakeModel, &b.VehicleType,
			&b.Section, &b.Notes, &b.PositionID, &b.CreatedAt, &b.UpdatedAt,
			&p.ID, &p.MapID, &p.X, &p.Y, &p.Width, &p.Height, &p.Rotation, &p.Color, &p.StrokeColor,
			&p.StrokeWidth, &p.IsVisible, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, model.BoatWithPosition{Boat: &b, Position: &p})
	}
	return out, rows.Err()
}

func scanBoat(s scanner) (*model.BoatListing, error) {
	var b model.BoatListing
	if err := s.Scan(&b.ID, &b.Index, &b.Name, &b.CustomerName, &b.Size, &b.MakeModel, &b.VehicleType,
		&b.Section, &b.Notes, &b.PositionID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
