package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pier11/marina-map/internal/model"
	"github.com/pier11/marina-map/internal/testutil"
)

func seedBoat(t *testing.T, r *BoatRepo, index int, customer string, opts ...func(*model.BoatListing)) *model.BoatListing {
	t.Helper()
	b := &model.BoatListing{Index: index, CustomerName: customer}
	for _, o := range opts {
		o(b)
	}
	require.NoError(t, r.Create(context.Background(), b))
	return b
}

func seedMapAndPosition(t *testing.T, db *Repos) (*model.Map, *model.BoatPosition) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	m := &model.Map{Name: "Dock A", ImagePath: "dock-a.png", ImageWidth: 794, ImageHeight: 1123, IsActive: true}
	require.NoError(t, db.Maps.CreateTx(ctx, tx, m))
	require.NoError(t, tx.Commit())

	p := &model.BoatPosition{MapID: m.ID, X: 100, Y: 200, Width: 100, Height: 50, Color: "blue", StrokeColor: "black", StrokeWidth: 1, IsVisible: true}
	require.NoError(t, db.Positions.Create(ctx, p))
	return m, p
}

func newRepos(t *testing.T) *Repos {
	return NewRepos(testutil.NewDB(t))
}

func TestBoatCreateAndLookups(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()

	b := seedBoat(t, rs.Boats, 7, "John Smith", func(b *model.BoatListing) {
		b.Section = testutil.Ptr("C")
		b.MakeModel = testutil.Ptr("Sea Ray 240")
	})
	assert.NotZero(t, b.ID)
	assert.False(t, b.IsMapped())

	got, err := rs.Boats.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Index)
	assert.Equal(t, "Sea Ray 240", *got.MakeModel)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.PositionID)
	assert.WithinDuration(t, time.Now().UTC(), got.CreatedAt, time.Minute)

	byIdx, err := rs.Boats.GetByIndex(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, b.ID, byIdx.ID)

	_, err = rs.Boats.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrBoatNotFound)

	err = rs.Boats.Create(ctx, &model.BoatListing{Index: 7, CustomerName: "Dup"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestBoatSearchFoldsNonASCII(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()

	seedBoat(t, rs.Boats, 1, "Åsa Öberg")
	seedBoat(t, rs.Boats, 2, "Asa Oberg")

	for _, q := range []string{"åsa", "ÅSA", "Åsa", "öberg", "ÖBERG"} {
		got, err := rs.Boats.List(ctx, BoatFilter{Search: q})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, indexes(got), q)
	}
}

func TestBoatListFilters(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()

	seedBoat(t, rs.Boats, 3, "Mary Johnson", func(b *model.BoatListing) { b.Section = testutil.Ptr("A") })
	seedBoat(t, rs.Boats, 1, "Peter Parker", func(b *model.BoatListing) { b.Notes = testutil.Ptr("owner is john's cousin") })
	seedBoat(t, rs.Boats, 2, "Alice", func(b *model.BoatListing) {
		b.Section = testutil.Ptr("B")
		b.VehicleType = testutil.Ptr("Jetski")
	})
	seedBoat(t, rs.Boats, 4, "Bob", func(b *model.BoatListing) { b.Name = testutil.Ptr("100% Fun") })

	all, err := rs.Boats.List(ctx, BoatFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, indexes(all))

	johns, err := rs.Boats.List(ctx, BoatFilter{Search: "JOHN"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, indexes(johns))

	jet, err := rs.Boats.List(ctx, BoatFilter{Search: "jet"})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, indexes(jet))

	// LIKE wildcards in the search text match literally.
	pct, err := rs.Boats.List(ctx, BoatFilter{Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, indexes(pct))
	under, err := rs.Boats.List(ctx, BoatFilter{Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, under)

	secB, err := rs.Boats.List(ctx, BoatFilter{Section: "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, indexes(secB))

	page, err := rs.Boats.List(ctx, BoatFilter{Page: Page{Skip: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, indexes(page))
}

func TestBoatPairingAndMappedFilter(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()
	m, p := seedMapAndPosition(t, rs)
	b1 := seedBoat(t, rs.Boats, 1, "One")
	b2 := seedBoat(t, rs.Boats, 2, "Two")

	tx, err := rs.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	holder, err := rs.Boats.HolderOfPositionTx(ctx, tx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, holder)
	require.NoError(t, rs.Boats.SetPositionTx(ctx, tx, b1, &p.ID))
	require.NoError(t, tx.Commit())
	assert.True(t, b1.IsMapped())

	// A second holder for the same position violates the unique constraint.
	tx, err = rs.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = rs.Boats.SetPositionTx(ctx, tx, b2, &p.ID)
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, tx.Rollback())

	mapped, err := rs.Boats.List(ctx, BoatFilter{MappedOnly: testutil.Ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indexes(mapped))
	unmapped, err := rs.Boats.List(ctx, BoatFilter{MappedOnly: testutil.Ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, indexes(unmapped))

	paired, err := rs.Boats.ListPairedOnMap(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, paired, 1)
	assert.Equal(t, b1.ID, paired[0].Boat.ID)
	assert.Equal(t, p.ID, paired[0].Position.ID)
	assert.Equal(t, 100.0, paired[0].Position.X)
}

func TestMapListCountsAndActiveFilter(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()
	m, _ := seedMapAndPosition(t, rs)

	tx, err := rs.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	taken, err := rs.Maps.ActiveNameTakenTx(ctx, tx, "Dock A", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = rs.Maps.ActiveNameTakenTx(ctx, tx, "Dock A", m.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	old := &model.Map{Name: "Old Dock", ImagePath: "old.jpg", ImageWidth: 10, ImageHeight: 10, IsActive: false}
	require.NoError(t, rs.Maps.CreateTx(ctx, tx, old))
	require.NoError(t, tx.Commit())

	active, err := rs.Maps.List(ctx, Page{}, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Dock A", active[0].Name)
	assert.Equal(t, 1, active[0].BoatCount)

	all, err := rs.Maps.List(ctx, Page{}, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMapDeleteCascadesPositions(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()
	m, p := seedMapAndPosition(t, rs)

	tx, err := rs.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, rs.Maps.DeleteTx(ctx, tx, m.ID))
	require.NoError(t, tx.Commit())

	_, err = rs.Positions.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestUserRepo(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()

	u := &model.User{Email: " Staff@Pier11Marina.com ", PasswordHash: "x", FullName: "Dock Staff", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, rs.Users.Create(ctx, u))
	assert.Equal(t, "staff@pier11marina.com", u.Email)

	err := rs.Users.Create(ctx, &model.User{Email: "staff@pier11marina.com", PasswordHash: "y", FullName: "Dup", Role: model.RoleStaff})
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := rs.Users.GetByEmail(ctx, "STAFF@pier11marina.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, got.Role)
	assert.True(t, got.IsActive)

	got.Role = model.RoleAdmin
	got.IsActive = false
	require.NoError(t, rs.Users.Update(ctx, got))
	again, err := rs.Users.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, again.Role)
	assert.False(t, again.IsActive)
	require.NotNil(t, again.UpdatedAt)

	_, err = rs.Users.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenRepoLifecycle(t *testing.T) {
	rs := newRepos(t)
	ctx := context.Background()
	u := &model.User{Email: "a@b.co", PasswordHash: "x", FullName: "A", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, rs.Users.Create(ctx, u))

	require.NoError(t, rs.Tokens.StoreRefresh(ctx, u.ID, "live", time.Now().Add(time.Hour)))
	require.NoError(t, rs.Tokens.StoreRefresh(ctx, u.ID, "stale", time.Now().Add(-time.Hour)))

	uid, err := rs.Tokens.ValidateRefresh(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = rs.Tokens.ValidateRefresh(ctx, "stale")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = rs.Tokens.ValidateRefresh(ctx, "missing")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, rs.Tokens.RevokeByHash(ctx, "live"))
	assert.ErrorIs(t, rs.Tokens.RevokeByHash(ctx, "live"), ErrTokenInvalid)
	_, err = rs.Tokens.ValidateRefresh(ctx, "live")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func indexes(bs []*model.BoatListing) []int {
	out := make([]int, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Index)
	}
	return out
}

func TestStoreErrorClassification(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))

	assert.True(t, IsLockConflict(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsLockConflict(fmt.Errorf("delete position: %w", &mysql.MySQLError{Number: 1205})))
	assert.True(t, IsLockConflict(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsLockConflict(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsLockConflict(ErrDuplicate))
	assert.False(t, IsLockConflict(nil))
}
