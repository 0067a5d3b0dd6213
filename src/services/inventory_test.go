package services

import (
	"loketkita/src/db/dbtest"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReserveIssuesConditionalDecrement(t *testing.T) {
	gdb, mock := dbtest.Mock(t)

	mock.ExpectExec(`UPDATE "events" SET "quota"=quota - \$1,"updated_at"=\$2 WHERE \(id = \$3 AND quota >= \$4\)`).
		WithArgs(2, sqlmock.AnyArg(), 7, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Inventory{}.Reserve(gdb, 7, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveDistinguishesMissingEvent(t *testing.T) {
	gdb, mock := dbtest.Mock(t)

	mock.ExpectExec(`UPDATE "events" SET "quota"=quota - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "events" WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	assert.ErrorIs(t, Inventory{}.Reserve(gdb, 7, 5), Kind(ErrInsufficientQuota))

	mock.ExpectExec(`UPDATE "events" SET "quota"=quota - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "events" WHERE id = \$1`).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	assert.ErrorIs(t, Inventory{}.Reserve(gdb, 8, 5), &DomainError{Kind: ErrNotFound, Entity: "Event"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveAndRelease(t *testing.T) {
	f := newFixture(t)
	org := f.organizer(t)
	e := f.event(t, org.ID, 5, 1000)
	inv := Inventory{}

	require.NoError(t, inv.Reserve(f.db, e.ID, 3))
	assert.Equal(t, int64(2), f.quota(t, e.ID))

	assert.ErrorIs(t, inv.Reserve(f.db, e.ID, 3), Kind(ErrInsufficientQuota))
	assert.Equal(t, int64(2), f.quota(t, e.ID))

	require.NoError(t, inv.Release(f.db, e.ID, 3))
	assert.Equal(t, int64(5), f.quota(t, e.ID))

	assert.ErrorIs(t, inv.Reserve(f.db, e.ID, 0), Kind(ErrInvalidState))
	assert.True(t, IsKind(inv.Reserve(f.db, 9999, 1), ErrNotFound))
	assert.True(t, IsKind(inv.Release(f.db, 9999, 1), ErrNotFound))
}

func TestAdjustQuota(t *testing.T) {
	f := newFixture(t)
	org := f.organizer(t)
	e := f.event(t, org.ID, 5, 1000)
	inv := Inventory{}

	require.NoError(t, inv.Adjust(f.db, e.ID, 10))
	assert.Equal(t, int64(15), f.quota(t, e.ID))

	require.NoError(t, inv.Adjust(f.db, e.ID, -12))
	assert.Equal(t, int64(3), f.quota(t, e.ID))

	assert.ErrorIs(t, inv.Adjust(f.db, e.ID, -4), Kind(ErrInsufficientQuota))
	assert.Equal(t, int64(3), f.quota(t, e.ID))

	require.NoError(t, inv.Adjust(f.db, e.ID, 0))
	assert.True(t, IsKind(inv.Adjust(f.db, 9999, -1), ErrNotFound))
}

func TestReserveConcurrentBuyersNeverOversell(t *testing.T) {
	f := newFixture(t)
	org := f.organizer(t)
	e := f.event(t, org.ID, 1, 1000)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.db.Transaction(func(tx *gorm.DB) error {
				return Inventory{}.Reserve(tx, e.ID, 1)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(0), f.quota(t, e.ID))
}
