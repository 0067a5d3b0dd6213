package services

import (
	"context"
	"errors"
	"loketkita/src/models"
	"loketkita/src/models/scopes"
	"loketkita/src/types"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateEventParams struct {
	Name        string
	Description string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	Quota       int64
	Price       int64
	Publish     bool
}

// UpdateEventParams carries the fields to change. Nil fields are left alone.
type UpdateEventParams struct {
	Name        *string
	Description *string
	Location    *string
	StartDate   *time.Time
	EndDate     *time.Time
	Price       *int64
	// AddQuota is added to the remaining tickets; negative values withdraw
	// unsold ones.
	AddQuota int64
	Status   types.EventStatus
}

type Attendee struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Quantity  int64  `json:"quantity"`
	TotalPaid int64  `json:"total_paid"`
}

type PeriodStats struct {
	Period       time.Time `json:"period"`
	Revenue      int64     `json:"revenue"`
	TicketsSold  int64     `json:"tickets_sold"`
	Transactions int64     `json:"transactions"`
}

type ReviewSummary struct {
	EventID   uint      `json:"event_id"`
	EventName string    `json:"event_name"`
	Reviewer  string    `json:"reviewer"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type OrganizerProfile struct {
	OrganizerID   uint            `json:"organizer_id"`
	Name          string          `json:"name"`
	TotalEvents   int             `json:"total_events"`
	TotalReviews  int             `json:"total_reviews"`
	AverageRating *float64        `json:"average_rating"`
	Reviews       []ReviewSummary `json:"reviews"`
}

var eventTransitions = map[types.EventStatus][]types.EventStatus{
	types.EVENT_DRAFT:     {types.EVENT_PUBLISHED, types.EVENT_CLOSED},
	types.EVENT_PUBLISHED: {types.EVENT_CLOSED},
}

func canMoveEvent(from, to types.EventStatus) bool {
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) Create(ctx context.Context, organizerID uint, p CreateEventParams) (*models.Event, error) {
	if !p.EndDate.After(p.StartDate) {
		return nil, newError(ErrInvalidState, "end date must be after start date")
	}
	if p.Quota <= 0 || p.Price < 0 {
		return nil, newError(ErrInvalidState, "quota must be positive and price must not be negative")
	}
	status := types.EVENT_DRAFT
	if p.Publish {
		status = types.EVENT_PUBLISHED
	}
	event := models.Event{
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Quota:       p.Quota,
		Price:       p.Price,
		Status:      status,
		OrganizerID: organizerID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&event).Error; err != nil {
		return nil, lookupError(err, "Event")
	}
	return &event, nil
}

// List returns published events, optionally filtered by a name or location
// fragment.
func (s *EventService) List(ctx context.Context, search string, page types.PageQuery) ([]models.Event, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("status = ?", types.EVENT_PUBLISHED)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []models.Event
	err := q.Order("start_date").
		Scopes(scopes.Paginate(page.Offset(), page.Limit)).
		Find(&events).
		Error
	return events, total, err
}

// Update edits an event the organizer owns. Quota changes are relative so
// they compose with concurrent purchases.
func (s *EventService) Update(ctx context.Context, organizerID, eventID uint, p UpdateEventParams) (*models.Event, error) {
	if p.Price != nil && *p.Price < 0 {
		return nil, newError(ErrInvalidState, "price must not be negative")
	}
	var updated models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.owned(tx.Clauses(clause.Locking{Strength: "UPDATE"}), organizerID, eventID)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if p.Name != nil {
			updates["name"] = *p.Name
		}
		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if p.Location != nil {
			updates["location"] = *p.Location
		}
		if p.Price != nil {
			updates["price"] = *p.Price
		}
		start, end := event.StartDate, event.EndDate
		if p.StartDate != nil {
			start = *p.StartDate
			updates["start_date"] = start
		}
		if p.EndDate != nil {
			end = *p.EndDate
			updates["end_date"] = end
		}
		if !end.After(start) {
			return newError(ErrInvalidState, "end date must be after start date")
		}
		if p.Status != "" && p.Status != event.Status {
			if !canMoveEvent(event.Status, p.Status) {
				return newError(ErrInvalidState, "cannot move a %s event to %s", event.Status, p.Status)
			}
			updates["status"] = p.Status
		}
		if len(updates) > 0 {
			res := tx.Model(&models.Event{}).
				Where("id = ? AND status = ?", event.ID, event.Status).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return newError(ErrInvalidState, "event %d changed concurrently", event.ID)
			}
		}
		if err := (Inventory{}).Adjust(tx, event.ID, p.AddQuota); err != nil {
			return err
		}
		return tx.Scopes(scopes.WithID(event.ID)).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete soft-deletes an event and its vouchers. Events with pending or
// confirmed transactions cannot be deleted; close them instead.
func (s *EventService) Delete(ctx context.Context, organizerID, eventID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.owned(tx.Clauses(clause.Locking{Strength: "UPDATE"}), organizerID, eventID)
		if err != nil {
			return err
		}
		var live int64
		err = tx.Model(&models.Transaction{}).
			Where("event_id = ? AND status IN ?", event.ID, []types.TransactionStatus{
				types.TRANSACTION_WAITING_PAYMENT,
				types.TRANSACTION_WAITING_CONFIRMATION,
				types.TRANSACTION_DONE,
			}).
			Count(&live).
			Error
		if err != nil {
			return err
		}
		if live > 0 {
			return newError(ErrInvalidState, "event %d has %d open or confirmed transactions", event.ID, live)
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Voucher{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, event.ID).Error
	})
}

// owned loads the event and checks it belongs to organizerID.
func (s *EventService) owned(db *gorm.DB, organizerID, eventID uint) (*models.Event, error) {
	var event models.Event
	if err := db.Scopes(scopes.WithID(eventID)).First(&event).Error; err != nil {
		return nil, lookupError(err, "Event")
	}
	if event.OrganizerID != organizerID {
		return nil, newError(ErrUnauthorized, "event %d does not belong to you", eventID)
	}
	return &event, nil
}

// Attendees lists the buyers of confirmed transactions for an event.
func (s *EventService) Attendees(ctx context.Context, organizerID, eventID uint, page types.PageQuery) ([]Attendee, int64, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.owned(db, organizerID, eventID); err != nil {
		return nil, 0, err
	}
	q := db.Model(&models.Transaction{}).
		Where("event_id = ? AND status = ?", eventID, types.TRANSACTION_DONE).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.Transaction
	err := q.Preload("User").
		Order("created_at DESC").
		Scopes(scopes.Paginate(page.Offset(), page.Limit)).
		Find(&txns).
		Error
	if err != nil {
		return nil, 0, err
	}
	attendees := make([]Attendee, 0, len(txns))
	for _, t := range txns {
		attendees = append(attendees, Attendee{
			Name:      t.User.FullName(),
			Email:     t.User.Email,
			Quantity:  t.Quantity,
			TotalPaid: t.TotalPrice,
		})
	}
	return attendees, total, nil
}

// Stats groups the organizer's confirmed transactions by day, month or year
// of purchase.
func (s *EventService) Stats(ctx context.Context, organizerID uint, rng string) ([]PeriodStats, error) {
	var trunc func(time.Time) time.Time
	switch rng {
	case "day":
		trunc = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC) }
	case "month":
		trunc = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC) }
	case "year":
		trunc = func(t time.Time) time.Time { return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC) }
	default:
		return nil, newError(ErrInvalidState, "range must be day, month or year")
	}

	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Select("id", "quantity", "total_price", "created_at").
		Where("status = ?", types.TRANSACTION_DONE).
		Where("event_id IN (?)", s.db.Model(&models.Event{}).Select("id").Where("organizer_id = ?", organizerID)).
		Find(&txns).
		Error
	if err != nil {
		return nil, err
	}

	buckets := map[time.Time]*PeriodStats{}
	for _, t := range txns {
		key := trunc(t.CreatedAt.UTC())
		b, ok := buckets[key]
		if !ok {
			b = &PeriodStats{Period: key}
			buckets[key] = b
		}
		b.Revenue += t.TotalPrice
		b.TicketsSold += t.Quantity
		b.Transactions++
	}
	stats := make([]PeriodStats, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, *b)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Period.Before(stats[j].Period)
	})
	return stats, nil
}

// CreateReview accepts one review per user per event, and only from users
// holding a confirmed transaction for it.
func (s *EventService) CreateReview(ctx context.Context, userID, eventID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, newError(ErrInvalidState, "rating must be between 1 and 5")
	}
	db := s.db.WithContext(ctx)
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	var attended int64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, types.TRANSACTION_DONE).
		Count(&attended).
		Error
	if err != nil {
		return nil, err
	}
	if attended == 0 {
		return nil, newError(ErrInvalidState, "you can only review an event after attending it")
	}
	var existing models.Review
	err = db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&existing).Error
	if err == nil {
		return nil, newError(ErrAlreadyExists, "you have already reviewed this event")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	review := models.Review{
		UserID:  userID,
		EventID: eventID,
		Rating:  rating,
		Comment: comment,
	}
	if err := db.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// OrganizerProfile summarises an organizer's events and the reviews left on
// them.
func (s *EventService) OrganizerProfile(ctx context.Context, organizerID uint) (*OrganizerProfile, error) {
	db := s.db.WithContext(ctx)
	var organizer models.User
	err := db.Where("id = ? AND role = ?", organizerID, types.ROLE_ORGANISER).First(&organizer).Error
	if err != nil {
		return nil, lookupError(err, "Organizer")
	}
	var events []models.Event
	if err := db.Select("id", "name").Where("organizer_id = ?", organizerID).Find(&events).Error; err != nil {
		return nil, err
	}
	profile := &OrganizerProfile{
		OrganizerID: organizer.ID,
		Name:        organizer.FullName(),
		TotalEvents: len(events),
		Reviews:     []ReviewSummary{},
	}
	if len(events) == 0 {
		return profile, nil
	}
	names := make(map[uint]string, len(events))
	ids := make([]uint, 0, len(events))
	for _, e := range events {
		names[e.ID] = e.Name
		ids = append(ids, e.ID)
	}
	var reviews []models.Review
	err = db.Preload("User").
		Where("event_id IN ?", ids).
		Order("created_at DESC").
		Find(&reviews).
		Error
	if err != nil {
		return nil, err
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
		profile.Reviews = append(profile.Reviews, ReviewSummary{
			EventID:   r.EventID,
			EventName: names[r.EventID],
			Reviewer:  r.User.FullName(),
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	profile.TotalReviews = len(reviews)
	if len(reviews) > 0 {
		avg := float64(sum) / float64(len(reviews))
		profile.AverageRating = &avg
	}
	return profile, nil
}
