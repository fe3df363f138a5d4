package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/queue"
	"github.com/pier11/marina-map/internal/repository"
)

// BoatService manages boat listings, the positions drawn on maps, and the
// 1:1 pairing between them.
type BoatService struct {
	repos *repository.Repos
	opts  Options
}

func NewBoatService(repos *repository.Repos, opts Options) *BoatService {
	return &BoatService{repos: repos, opts: opts.withDefaults()}
}

func (s *BoatService) ListBoats(ctx context.Context, f repository.BoatFilter) ([]*model.BoatListing, error) {
	return s.repos.Boats.List(ctx, f)
}

func (s *BoatService) GetBoat(ctx context.Context, id uint64) (*model.BoatListing, error) {
	b, err := s.repos.Boats.GetByID(ctx, id)
	return b, translate(err)
}

func (s *BoatService) GetBoatByIndex(ctx context.Context, index int) (*model.BoatListing, error) {
	b, err := s.repos.Boats.GetByIndex(ctx, index)
	return b, translate(err)
}

// CreateBoat stores a new unpaired listing. The index must be unused.
func (s *BoatService) CreateBoat(ctx context.Context, in model.BoatCreate) (*model.BoatListing, error) {
	if _, err := s.repos.Boats.GetByIndex(ctx, in.Index); err == nil {
		return nil, conflict("Boat with index %d already exists", in.Index)
	} else if !errors.Is(err, repository.ErrBoatNotFound) {
		return nil, err
	}

	b := in.ToListing()
	if err := s.repos.Boats.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Boat with index %d already exists", in.Index)
		}
		return nil, err
	}

	s.opts.Log.Info("boat created", zap.Uint64("boat_id", b.ID), zap.Int("index", b.Index))
	ev := queue.NewEvent(queue.EventBoatCreated)
	ev.BoatID, ev.BoatIndex = b.ID, b.Index
	s.opts.publish(ctx, ev)
	return b, nil
}

// UpdateBoat applies a partial update. A new index must not belong to a
// different listing. The pairing is never changed here.
func (s *BoatService) UpdateBoat(ctx context.Context, id uint64, in model.BoatUpdate) (*model.BoatListing, error) {
	b, err := s.repos.Boats.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if in.Index != nil && *in.Index != b.Index {
		other, err := s.repos.Boats.GetByIndex(ctx, *in.Index)
		if err == nil && other.ID != b.ID {
			return nil, conflict("Boat with index %d already exists", *in.Index)
		}
		if err != nil && !errors.Is(err, repository.ErrBoatNotFound) {
			return nil, err
		}
	}

	in.Apply(b)
	if err := s.repos.Boats.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Boat with index %d already exists", b.Index)
		}
		return nil, err
	}
	return b, nil
}

// DeleteBoat removes the listing and the position it holds, if any.
// Like every pairing write, it locks listing rows before position rows.
func (s *BoatService) DeleteBoat(ctx context.Context, id uint64) error {
	var b *model.BoatListing
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		var err error
		if b, err = s.repos.Boats.GetByIDTx(ctx, tx, id); err != nil {
			return translate(err)
		}
		if err := s.repos.Boats.DeleteTx(ctx, tx, id); err != nil {
			return translate(err)
		}
		if b.PositionID != nil {
			if err := s.repos.Positions.DeleteTx(ctx, tx, *b.PositionID); err != nil && !errors.Is(err, repository.ErrPositionNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.Uint64("boat_id", b.ID), zap.Int("index", b.Index)}
	ev := queue.NewEvent(queue.EventBoatDeleted)
	ev.BoatID, ev.BoatIndex = b.ID, b.Index
	if b.PositionID != nil {
		fields = append(fields, zap.Uint64("position_id", *b.PositionID))
		ev.PositionID = *b.PositionID
	}
	s.opts.Log.Info("boat deleted", fields...)
	s.opts.publish(ctx, ev)
	return nil
}

// Assign pairs a listing with a position. The position must be free or
// already held by this listing; a previously held position is released
// by the same write. Occupancy is read inside the transaction, and a
// concurrent winner still surfaces as Conflict through the unique
// constraint on position_id.
func (s *BoatService) Assign(ctx context.Context, boatID, positionID uint64) (*model.BoatListing, error) {
	var (
		b       *model.BoatListing
		prev    *uint64
		changed bool
	)
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		var err error
		if b, err = s.repos.Boats.GetByIDTx(ctx, tx, boatID); err != nil {
			return translate(err)
		}
		holder, err := s.repos.Boats.HolderOfPositionTx(ctx, tx, positionID)
		if err != nil {
			return err
		}
		if _, err := s.repos.Positions.GetByIDTx(ctx, tx, positionID); err != nil {
			return translate(err)
		}
		if b.PositionID != nil && *b.PositionID == positionID {
			return nil
		}
		if holder != nil {
			return conflict(msgPositionTaken)
		}

		prev = b.PositionID
		if err := s.repos.Boats.SetPositionTx(ctx, tx, b, &positionID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict(msgPositionTaken)
			}
			return err
		}
		changed = true
		return nil
	})
	s.opts.Observer.ObservePairing("assign", outcome(err))
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	fields := []zap.Field{zap.Uint64("boat_id", b.ID), zap.Uint64("position_id", positionID)}
	ev := queue.NewEvent(queue.EventBoatAssigned)
	ev.BoatID, ev.BoatIndex, ev.PositionID = b.ID, b.Index, positionID
	if prev != nil {
		fields = append(fields, zap.Uint64("previous_position_id", *prev))
		ev.PreviousPositionID = *prev
	}
	s.opts.Log.Info("boat assigned", fields...)
	s.opts.publish(ctx, ev)
	return b, nil
}

// Unassign releases the position a listing holds.
func (s *BoatService) Unassign(ctx context.Context, boatID uint64) (*model.BoatListing, error) {
	var (
		b    *model.BoatListing
		prev uint64
	)
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		var err error
		if b, err = s.repos.Boats.GetByIDTx(ctx, tx, boatID); err != nil {
			return translate(err)
		}
		if b.PositionID == nil {
			return conflict(msgNotAssigned)
		}
		prev = *b.PositionID
		return s.repos.Boats.SetPositionTx(ctx, tx, b, nil)
	})
	s.opts.Observer.ObservePairing("unassign", outcome(err))
	if err != nil {
		return nil, err
	}

	s.opts.Log.Info("boat unassigned", zap.Uint64("boat_id", b.ID), zap.Uint64("position_id", prev))
	ev := queue.NewEvent(queue.EventBoatUnassigned)
	ev.BoatID, ev.BoatIndex, ev.PreviousPositionID = b.ID, b.Index, prev
	s.opts.publish(ctx, ev)
	return b, nil
}

// ListPositions pages through the positions on an existing map.
func (s *BoatService) ListPositions(ctx context.Context, mapID uint64, page repository.Page) ([]*model.BoatPosition, error) {
	if _, err := s.repos.Maps.GetByID(ctx, mapID); err != nil {
		return nil, translate(err)
	}
	return s.repos.Positions.ListByMap(ctx, mapID, page)
}

func (s *BoatService) GetPosition(ctx context.Context, id uint64) (*model.BoatPosition, error) {
	p, err := s.repos.Positions.GetByID(ctx, id)
	return p, translate(err)
}

// CreatePosition places a new rectangle on an existing map.
func (s *BoatService) CreatePosition(ctx context.Context, in model.PositionCreate) (*model.BoatPosition, error) {
	if _, err := s.repos.Maps.GetByID(ctx, in.MapID); err != nil {
		return nil, translate(err)
	}
	p := in.ToPosition()
	if err := s.repos.Positions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *BoatService) UpdatePosition(ctx context.Context, id uint64, in model.PositionUpdate) (*model.BoatPosition, error) {
	p, err := s.repos.Positions.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	in.Apply(p)
	if err := s.repos.Positions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePosition removes a position. A listing holding it is unpaired
// first and survives.
func (s *BoatService) DeletePosition(ctx context.Context, id uint64) error {
	var (
		p      *model.BoatPosition
		holder *model.BoatListing
	)
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		var err error
		if holder, err = s.repos.Boats.HolderOfPositionTx(ctx, tx, id); err != nil {
			return err
		}
		if p, err = s.repos.Positions.GetByIDTx(ctx, tx, id); err != nil {
			return translate(err)
		}
		if holder != nil {
			if err := s.repos.Boats.SetPositionTx(ctx, tx, holder, nil); err != nil {
				return err
			}
		}
		return translate(s.repos.Positions.DeleteTx(ctx, tx, id))
	})
	if err != nil {
		return err
	}

	ev := queue.NewEvent(queue.EventPositionDeleted)
	ev.PositionID, ev.MapID = p.ID, p.MapID
	if holder != nil {
		ev.BoatID, ev.BoatIndex = holder.ID, holder.Index
		s.opts.Log.Info("position deleted, boat unpaired",
			zap.Uint64("position_id", p.ID), zap.Uint64("boat_id", holder.ID))
	} else {
		s.opts.Log.Info("position deleted", zap.Uint64("position_id", p.ID))
	}
	s.opts.publish(ctx, ev)
	return nil
}

// MapBoats returns every paired {boat, position} on an existing map.
func (s *BoatService) MapBoats(ctx context.Context, mapID uint64) ([]model.BoatWithPosition, error) {
	if _, err := s.repos.Maps.GetByID(ctx, mapID); err != nil {
		return nil, translate(err)
	}
	return s.repos.Boats.ListPairedOnMap(ctx, mapID)
}
