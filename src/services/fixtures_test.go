package services

import (
	"context"
	"fmt"
	"loketkita/src/db/dbtest"
	"loketkita/src/models"
	"loketkita/src/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishStatusChange(ctx context.Context, change StatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	txs      *TransactionService

	mu  sync.Mutex
	seq int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		db:       dbtest.Open(t),
		clock:    &fakeClock{t: epoch},
		notifier: &recordingNotifier{},
	}
	opts = append([]Option{WithClock(f.clock.Now), WithNotifier(f.notifier)}, opts...)
	f.txs = NewTransactionService(f.db, opts...)
	return f
}

func (f *fixture) next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

func (f *fixture) user(t *testing.T, point int64, verified bool) models.User {
	t.Helper()
	n := f.next()
	u := models.User{
		FirstName:    "Buyer",
		LastName:     fmt.Sprint(n),
		Email:        fmt.Sprintf("buyer%d@example.com", n),
		Role:         types.ROLE_CUSTOMER,
		Point:        point,
		ReferralCode: fmt.Sprintf("BUYER%03d", n),
		IsVerified:   verified,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) organizer(t *testing.T) models.User {
	t.Helper()
	n := f.next()
	u := models.User{
		FirstName:    "Organizer",
		LastName:     fmt.Sprint(n),
		Email:        fmt.Sprintf("organizer%d@example.com", n),
		Role:         types.ROLE_ORGANISER,
		ReferralCode: fmt.Sprintf("ORG%03d", n),
		IsVerified:   true,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) event(t *testing.T, organizerID uint, quota, price int64) models.Event {
	t.Helper()
	e := models.Event{
		Name:        fmt.Sprintf("Concert %d", f.next()),
		Location:    "Jakarta",
		StartDate:   epoch.Add(30 * 24 * time.Hour),
		EndDate:     epoch.Add(30*24*time.Hour + 4*time.Hour),
		Quota:       quota,
		Price:       price,
		Status:      types.EVENT_PUBLISHED,
		OrganizerID: organizerID,
	}
	require.NoError(t, f.db.Omit(clause.Associations).Create(&e).Error)
	return e
}

func (f *fixture) voucher(t *testing.T, eventID uint, code, discount string, start, end time.Time) models.Voucher {
	t.Helper()
	v := models.Voucher{EventID: eventID, Code: code, Discount: discount, StartDate: start, EndDate: end}
	require.NoError(t, f.db.Omit(clause.Associations).Create(&v).Error)
	return v
}

func (f *fixture) coupon(t *testing.T, code, discount string, start, end time.Time) models.Coupon {
	t.Helper()
	c := models.Coupon{Code: code, Discount: discount, StartDate: start, EndDate: end}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) quota(t *testing.T, eventID uint) int64 {
	t.Helper()
	var e models.Event
	require.NoError(t, f.db.Unscoped().Select("id", "quota").Where("id = ?", eventID).First(&e).Error)
	return e.Quota
}

func (f *fixture) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.Select("id", "point").Where("id = ?", userID).First(&u).Error)
	return u.Point
}

func (f *fixture) reload(t *testing.T, txn *models.Transaction) models.Transaction {
	t.Helper()
	var got models.Transaction
	require.NoError(t, f.db.Where("id = ?", txn.ID).First(&got).Error)
	return got
}

func (f *fixture) entries(t *testing.T, userID uint, entryType types.PointEntryType) []models.PointHistory {
	t.Helper()
	var got []models.PointHistory
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", userID, entryType).Order("id").Find(&got).Error)
	return got
}
