package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/queue"
	"github.com/pier11/marina-map/internal/repository"
)

// MapDeleteOutcome tells the caller what Delete did to the map row.
type MapDeleteOutcome string

const (
	// MapDeactivated: the map still had positions, so it was only marked
	// inactive and its positions were kept.
	MapDeactivated MapDeleteOutcome = "deactivated"
	// MapRemoved: the map had no positions and its row was deleted.
	MapRemoved MapDeleteOutcome = "removed"
)

// MapService is the registry of marina maps. Names are unique among
// active maps only.
type MapService struct {
	repos *repository.Repos
	opts  Options
}

func NewMapService(repos *repository.Repos, opts Options) *MapService {
	return &MapService{repos: repos, opts: opts.withDefaults()}
}

func (s *MapService) List(ctx context.Context, page repository.Page, activeOnly bool) ([]model.MapWithCount, error) {
	return s.repos.Maps.List(ctx, page, activeOnly)
}

// Get returns the map with its position count, the paired listings and
// every position drawn on it.
func (s *MapService) Get(ctx context.Context, id uint64) (*model.MapDetail, error) {
	m, err := s.repos.Maps.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	count, err := s.repos.Positions.CountByMap(ctx, id)
	if err != nil {
		return nil, err
	}
	boats, err := s.repos.Boats.ListPairedOnMap(ctx, id)
	if err != nil {
		return nil, err
	}
	positions, err := s.repos.Positions.ListAllByMap(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.MapDetail{
		Map:       model.MapWithCount{Map: *m, BoatCount: count},
		Boats:     boats,
		Positions: positions,
	}, nil
}

// BoatCount is the number of positions on an existing map.
func (s *MapService) BoatCount(ctx context.Context, id uint64) (int, error) {
	if _, err := s.repos.Maps.GetByID(ctx, id); err != nil {
		return 0, translate(err)
	}
	return s.repos.Positions.CountByMap(ctx, id)
}

func (s *MapService) Create(ctx context.Context, in model.MapCreate) (*model.MapWithCount, error) {
	m := in.ToMap()
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		if m.IsActive {
			if err := s.ensureNameFree(ctx, tx, m.Name, 0); err != nil {
				return err
			}
		}
		return s.repos.Maps.CreateTx(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	s.opts.Log.Info("map created", zap.Uint64("map_id", m.ID), zap.String("name", m.Name))
	return &model.MapWithCount{Map: *m}, nil
}

// Update applies a partial update. The active-name check runs whenever
// the map ends up active under a name it did not already hold actively,
// which covers both renames and reactivation.
func (s *MapService) Update(ctx context.Context, id uint64, in model.MapUpdate) (*model.MapWithCount, error) {
	var (
		m     *model.Map
		count int
	)
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		var err error
		if m, err = s.repos.Maps.GetByIDTx(ctx, tx, id); err != nil {
			return translate(err)
		}
		wasActive, oldName := m.IsActive, m.Name
		in.Apply(m)
		if m.IsActive && (!wasActive || m.Name != oldName) {
			if err := s.ensureNameFree(ctx, tx, m.Name, m.ID); err != nil {
				return err
			}
		}
		if err := s.repos.Maps.UpdateTx(ctx, tx, m); err != nil {
			return err
		}
		count, err = s.repos.Positions.CountByMapTx(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &model.MapWithCount{Map: *m, BoatCount: count}, nil
}

// Delete removes a map with no positions, or deactivates one that still
// has positions.
func (s *MapService) Delete(ctx context.Context, id uint64) (MapDeleteOutcome, error) {
	var result MapDeleteOutcome
	err := withTx(ctx, s.repos.DB, func(tx *sql.Tx) error {
		m, err := s.repos.Maps.GetByIDTx(ctx, tx, id)
		if err != nil {
			return translate(err)
		}
		count, err := s.repos.Positions.CountByMapTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if count == 0 {
			result = MapRemoved
			return translate(s.repos.Maps.DeleteTx(ctx, tx, id))
		}
		result = MapDeactivated
		m.IsActive = false
		return s.repos.Maps.UpdateTx(ctx, tx, m)
	})
	if err != nil {
		return "", err
	}

	s.opts.Observer.ObserveMapDelete(string(result))
	s.opts.Log.Info("map deleted", zap.Uint64("map_id", id), zap.String("outcome", string(result)))
	ev := queue.NewEvent(queue.EventMapDeleted)
	ev.MapID, ev.Outcome = id, string(result)
	s.opts.publish(ctx, ev)
	return result, nil
}

func (s *MapService) ensureNameFree(ctx context.Context, tx *sql.Tx, name string, excludeID uint64) error {
	taken, err := s.repos.Maps.ActiveNameTakenTx(ctx, tx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return conflict(msgActiveMapName)
	}
	return nil
}
