package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ngfenglong/JiakAIBot/models"
)

// Recognizer maps raw food input (photo bytes or text) to a structured
// food description. External collaborator; no local retry.
type Recognizer interface {
	RecognizeImage(ctx context.Context, image []byte) (*FoodAnalysis, error)
	RecognizeText(ctx context.Context, text string) (*FoodAnalysis, error)
}

// Resolver maps a food description to nutrition figures.
type Resolver interface {
	Resolve(ctx context.Context, foodDescription string, portionMultiplier float64) (*Resolution, error)
}

// MealStore is the persistence contract the pipeline writes to and the
// reporters read from.
type MealStore interface {
	SaveMeal(ctx context.Context, rec *models.MealRecord) error
	DailySummary(ctx context.Context, userID, date string) (*models.DailySummary, error)
	MealsForDate(ctx context.Context, userID string, day time.Time) ([]models.MealRecord, error)
	TrendData(ctx context.Context, userID string, days int) ([]models.TrendPoint, error)
}

// Timeouts bounds each external call; a call past its bound fails the
// whole message.
type Timeouts struct {
	Recognize time.Duration
	Resolve   time.Duration
	Store     time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Recognize <= 0 {
		t.Recognize = 45 * time.Second
	}
	if t.Resolve <= 0 {
		t.Resolve = 10 * time.Second
	}
	if t.Store <= 0 {
		t.Store = 10 * time.Second
	}
	return t
}

// MealLogService runs the recognize -> resolve -> record pipeline and the
// summary/history read paths. Stateless; safe for concurrent use.
type MealLogService struct {
	recognizer Recognizer
	resolver   Resolver
	store      MealStore
	timeouts   Timeouts
	now        func() time.Time
}

func NewMealLogService(recognizer Recognizer, resolver Resolver, store MealStore, timeouts Timeouts) *MealLogService {
	return &MealLogService{
		recognizer: recognizer,
		resolver:   resolver,
		store:      store,
		timeouts:   timeouts.withDefaults(),
		now:        time.Now,
	}
}

// LogText analyzes a free-text meal description and records the result.
// recordID is the idempotency key (derived from the inbound message);
// empty means no natural key, and a random one is generated.
func (s *MealLogService) LogText(ctx context.Context, userID, text, recordID string) (*models.MealRecord, error) {
	rctx, cancel := context.WithTimeout(ctx, s.timeouts.Recognize)
	defer cancel()
	analysis, err := s.recognizer.RecognizeText(rctx, text)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, userID, models.InputText, text, recordID, analysis)
}

// LogPhoto analyzes photo bytes and records the result. inputRef is the
// durable reference to the photo (archive key or platform file id), never
// the bytes themselves.
func (s *MealLogService) LogPhoto(ctx context.Context, userID string, image []byte, inputRef, recordID string) (*models.MealRecord, error) {
	rctx, cancel := context.WithTimeout(ctx, s.timeouts.Recognize)
	defer cancel()
	analysis, err := s.recognizer.RecognizeImage(rctx, image)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, userID, models.InputPhoto, inputRef, recordID, analysis)
}

func (s *MealLogService) record(ctx context.Context, userID string, kind models.InputKind, inputRef, recordID string, analysis *FoodAnalysis) (*models.MealRecord, error) {
	rctx, cancel := context.WithTimeout(ctx, s.timeouts.Resolve)
	defer cancel()
	resolution, err := s.resolver.Resolve(rctx, analysis.Description, analysis.PortionMultiplier)
	if err != nil {
		return nil, err
	}

	if recordID == "" {
		recordID = uuid.NewString()
	}
	rec := &models.MealRecord{
		ID:                 recordID,
		UserID:             userID,
		Timestamp:          s.now(),
		InputKind:          kind,
		InputRef:           inputRef,
		FoodDescription:    analysis.Description,
		Confidence:         analysis.Confidence,
		PortionMultiplier:  analysis.PortionMultiplier,
		Nutrition:          resolution.Nutrition.NonNegative(),
		RecognizerSnapshot: analysis.Snapshot,
		ResolverSnapshot:   resolution.Snapshot,
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.store.SaveMeal(sctx, rec); err != nil {
		// ErrDuplicateMeal included: the caller decides how to phrase it,
		// but the record was not double-counted either way.
		return rec, err
	}
	return rec, nil
}

// DailySummary reads the aggregate for (user, date); a day with no meals
// is all zeros, not an error.
func (s *MealLogService) DailySummary(ctx context.Context, userID, date string) (*models.DailySummary, error) {
	sctx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.DailySummary(sctx, userID, date)
}

// MealHistory returns the day's records in chronological order.
func (s *MealLogService) MealHistory(ctx context.Context, userID string, day time.Time) ([]models.MealRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.MealsForDate(sctx, userID, day)
}

// Trends reads back the last `days` daily summaries, oldest first.
func (s *MealLogService) Trends(ctx context.Context, userID string, days int) ([]models.TrendPoint, error) {
	sctx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.TrendData(sctx, userID, days)
}
