package repository

import "database/sql"

// Repos bundles every repository over one database handle.
type Repos struct {
	DB        *sql.DB
	Users     *UserRepo
	Tokens    *TokenRepo
	Maps      *MapRepo
	Boats     *BoatRepo
	Positions *PositionRepo
}

func NewRepos(db *sql.DB) *Repos {
	return &Repos{
		DB:        db,
		Users:     NewUserRepo(db),
		Tokens:    NewTokenRepo(db),
		Maps:      NewMapRepo(db),
		Boats:     NewBoatRepo(db),
		Positions: NewPositionRepo(db),
	}
}
