package services

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/identity"
	"arts_scrooper/models"
	"arts_scrooper/storage"
)

const (
	MsgNoNewEvents     = "No new events found"
	MsgScrapeSucceeded = "Successfully scraped events"
)

var ErrNotFound = eris.New("services: event not found")

// EventService owns every read-modify-write of the event store. Writes
// within one process are serialized.
type EventService struct {
	store storage.EventStore
	ids   identity.IDGenerator
	now   func() time.Time

	mu sync.Mutex
}

func NewEventService(store storage.EventStore, ids identity.IDGenerator, now func() time.Time) *EventService {
	if ids == nil {
		ids = identity.TimeRandomIDs{}
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{store: store, ids: ids, now: now}
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "events: list")
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "events: get")
	}
	if i := indexOf(events, id); i >= 0 {
		return &events[i], nil
	}
	return nil, ErrNotFound
}

// Create stores raw as a new event. The id and creation time are assigned here.
func (s *EventService) Create(ctx context.Context, raw models.RawEvent) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "events: create")
	}

	evt := models.NewEvent(s.ids.NewID(), raw, s.now())
	events = append(events, evt)
	if err := s.store.WriteAll(ctx, events); err != nil {
		return nil, eris.Wrap(err, "events: create")
	}
	return &evt, nil
}

func (s *EventService) Update(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "events: update")
	}
	i := indexOf(events, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	patch.Apply(&events[i])
	now := s.now()
	events[i].UpdatedAt = &now

	if err := s.store.WriteAll(ctx, events); err != nil {
		return nil, eris.Wrap(err, "events: update")
	}
	updated := events[i]
	return &updated, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return eris.Wrap(err, "events: delete")
	}
	i := indexOf(events, id)
	if i < 0 {
		return ErrNotFound
	}

	events = append(events[:i], events[i+1:]...)
	if err := s.store.WriteAll(ctx, events); err != nil {
		return eris.Wrap(err, "events: delete")
	}
	return nil
}

// MergeScraped appends the candidates that are not already stored and
// reports the counts. An empty batch touches nothing.
func (s *EventService) MergeScraped(ctx context.Context, candidates []models.RawEvent) (*models.ScrapeReport, error) {
	if len(candidates) == 0 {
		return &models.ScrapeReport{Message: MsgNoNewEvents}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "events: merge read")
	}

	fresh := Deduplicate(events, candidates)
	createdAt := s.now()
	for _, raw := range fresh {
		events = append(events, models.NewEvent(s.ids.NewID(), raw, createdAt))
	}

	if err := s.store.WriteAll(ctx, events); err != nil {
		return nil, eris.Wrap(err, "events: merge write")
	}

	report := &models.ScrapeReport{
		Message:    MsgScrapeSucceeded,
		Total:      len(candidates),
		Added:      len(fresh),
		Duplicates: len(candidates) - len(fresh),
	}
	zap.L().Info("events: merged scrape",
		zap.Int("total", report.Total),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
	)
	return report, nil
}

// Snapshot reads the full list for archiving.
func (s *EventService) Snapshot(ctx context.Context) ([]models.Event, error) {
	return s.List(ctx)
}

func indexOf(events []models.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}
