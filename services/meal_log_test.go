package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ngfenglong/JiakAIBot/models"
	"github.com/ngfenglong/JiakAIBot/utils"
)

// memStore is an in-memory MealStore with the same transactional
// semantics as the Firestore implementation: create-once meal records
// and a summary increment that happens only when the record is new.
type memStore struct {
	mu        sync.Mutex
	meals     map[string]map[string]models.MealRecord    // user -> record id
	summaries map[string]map[string]*models.DailySummary // user -> date key
	failSave  error
}

func newMemStore() *memStore {
	return &memStore{
		meals:     map[string]map[string]models.MealRecord{},
		summaries: map[string]map[string]*models.DailySummary{},
	}
}

func (m *memStore) SaveMeal(_ context.Context, rec *models.MealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if m.meals[rec.UserID] == nil {
		m.meals[rec.UserID] = map[string]models.MealRecord{}
		m.summaries[rec.UserID] = map[string]*models.DailySummary{}
	}
	if _, exists := m.meals[rec.UserID][rec.ID]; exists {
		return ErrDuplicateMeal
	}
	m.meals[rec.UserID][rec.ID] = *rec

	key := utils.DateKey(rec.Timestamp)
	s := m.summaries[rec.UserID][key]
	if s == nil {
		s = models.EmptyDailySummary(rec.UserID, key)
		m.summaries[rec.UserID][key] = s
	}
	n := rec.Nutrition
	s.TotalCalories += n.Calories
	s.TotalProtein += n.Protein
	s.TotalCarbs += n.Carbs
	s.TotalFat += n.Fat
	s.TotalFiber += n.Fiber
	s.TotalSugar += n.Sugar
	s.TotalSodium += n.Sodium
	s.MealCount++
	return nil
}

func (m *memStore) DailySummary(_ context.Context, userID, date string) (*models.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.summaries[userID][date]; s != nil {
		cp := *s
		return &cp, nil
	}
	return models.EmptyDailySummary(userID, date), nil
}

func (m *memStore) MealsForDate(_ context.Context, userID string, day time.Time) ([]models.MealRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, end := utils.DayWindow(day)
	out := []models.MealRecord{}
	for _, rec := range m.meals[userID] {
		if !rec.Timestamp.Before(start) && rec.Timestamp.Before(end) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) TrendData(_ context.Context, userID string, days int) ([]models.TrendPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.summaries[userID]))
	for k := range m.summaries[userID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := []models.TrendPoint{}
	for _, k := range keys {
		s := m.summaries[userID][k]
		out = append(out, models.TrendPoint{Date: k, Calories: s.TotalCalories, Meals: s.MealCount})
	}
	return out, nil
}

type stubRecognizer struct {
	analysis *FoodAnalysis
	err      error
}

func (s stubRecognizer) RecognizeImage(context.Context, []byte) (*FoodAnalysis, error) {
	return s.analysis, s.err
}

func (s stubRecognizer) RecognizeText(context.Context, string) (*FoodAnalysis, error) {
	return s.analysis, s.err
}

type stubResolver struct {
	resolution *Resolution
	err        error
}

func (s stubResolver) Resolve(context.Context, string, float64) (*Resolution, error) {
	return s.resolution, s.err
}

func newTestService(store MealStore, rec Recognizer, res Resolver) *MealLogService {
	svc := NewMealLogService(rec, res, store, Timeouts{})
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC) }
	return svc
}

func TestLogTextEndToEnd(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store,
		stubRecognizer{analysis: &FoodAnalysis{Description: "2 eggs, 1 slice toast", Confidence: "high", PortionMultiplier: 1.0}},
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 220, Protein: 14, Fat: 10, Carbs: 18}}},
	)

	rec, err := svc.LogText(context.Background(), "42", "2 eggs and toast", "m1-1")
	if err != nil {
		t.Fatalf("log text: %v", err)
	}
	if rec.FoodDescription != "2 eggs, 1 slice toast" {
		t.Fatalf("unexpected description %q", rec.FoodDescription)
	}
	if rec.InputKind != models.InputText || rec.InputRef != "2 eggs and toast" {
		t.Fatalf("unexpected input: %+v", rec)
	}

	s, err := svc.DailySummary(context.Background(), "42", "2025-03-01")
	if err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if s.MealCount != 1 || s.TotalCalories != 220 || s.TotalProtein != 14 || s.TotalFat != 10 || s.TotalCarbs != 18 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestTwoMealsSameDaySumExactly(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	rec := stubRecognizer{analysis: &FoodAnalysis{Description: "meal", Confidence: "medium", PortionMultiplier: 1.0}}

	first := newTestService(store, rec,
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 100, Protein: 5, Fat: 2, Carbs: 10}}})
	second := newTestService(store, rec,
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 300, Protein: 20, Fat: 15, Carbs: 30}}})

	if _, err := first.LogText(context.Background(), "7", "breakfast", "m7-1"); err != nil {
		t.Fatalf("first meal: %v", err)
	}
	if _, err := second.LogText(context.Background(), "7", "lunch", "m7-2"); err != nil {
		t.Fatalf("second meal: %v", err)
	}

	s, err := first.DailySummary(context.Background(), "7", "2025-03-01")
	if err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if s.TotalCalories != 400 || s.TotalProtein != 25 || s.TotalFat != 17 || s.TotalCarbs != 40 || s.MealCount != 2 {
		t.Fatalf("summary totals drifted from record sum: %+v", s)
	}
}

func TestRetryDoesNotDoubleCount(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store,
		stubRecognizer{analysis: &FoodAnalysis{Description: "nasi lemak", Confidence: "high", PortionMultiplier: 1.0}},
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 600, Protein: 18, Fat: 30, Carbs: 65}}},
	)

	if _, err := svc.LogText(context.Background(), "9", "nasi lemak", "m9-5"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	// Same record id, as a redelivered message would carry.
	_, err := svc.LogText(context.Background(), "9", "nasi lemak", "m9-5")
	if !errors.Is(err, ErrDuplicateMeal) {
		t.Fatalf("expected ErrDuplicateMeal on retry, got %v", err)
	}

	s, _ := svc.DailySummary(context.Background(), "9", "2025-03-01")
	if s.MealCount != 1 || s.TotalCalories != 600 {
		t.Fatalf("retry was double-counted: %+v", s)
	}
}

func TestEmptyDayReadsBackAsZeros(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), stubRecognizer{}, stubResolver{})

	s, err := svc.DailySummary(context.Background(), "1", "2025-03-01")
	if err != nil {
		t.Fatalf("daily summary: %v", err)
	}
	if s.MealCount != 0 || (s.Totals() != models.Nutrition{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}

	meals, err := svc.MealHistory(context.Background(), "1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("meal history: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("expected empty history, got %d records", len(meals))
	}
}

func TestRecognitionFailureWritesNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, stubRecognizer{err: ErrNoFoodDescribed}, stubResolver{})

	if _, err := svc.LogText(context.Background(), "3", "hello there", "m3-1"); !errors.Is(err, ErrNoFoodDescribed) {
		t.Fatalf("expected ErrNoFoodDescribed, got %v", err)
	}

	s, _ := svc.DailySummary(context.Background(), "3", "2025-03-01")
	if s.MealCount != 0 {
		t.Fatalf("failed recognition must not write records: %+v", s)
	}
}

func TestResolutionFailureWritesNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store,
		stubRecognizer{analysis: &FoodAnalysis{Description: "chicken rice", Confidence: "high", PortionMultiplier: 1.0}},
		stubResolver{err: ErrResolutionFailed},
	)

	if _, err := svc.LogText(context.Background(), "4", "chicken rice", "m4-1"); !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("expected ErrResolutionFailed, got %v", err)
	}
	s, _ := svc.DailySummary(context.Background(), "4", "2025-03-01")
	if s.MealCount != 0 {
		t.Fatalf("failed resolution must not write records: %+v", s)
	}
}

func TestStoreFailureSurfacesAsRetryable(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.failSave = ErrStoreUnavailable
	svc := newTestService(store,
		stubRecognizer{analysis: &FoodAnalysis{Description: "salad", Confidence: "medium", PortionMultiplier: 1.0}},
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 150}}},
	)

	if _, err := svc.LogText(context.Background(), "5", "salad", "m5-1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestNegativeNutritionClampedBeforeWrite(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store,
		stubRecognizer{analysis: &FoodAnalysis{Description: "weird", Confidence: "low", PortionMultiplier: 1.0}},
		stubResolver{resolution: &Resolution{Nutrition: models.Nutrition{Calories: 200, Protein: -3, Carbs: 20}}},
	)

	rec, err := svc.LogText(context.Background(), "6", "weird", "m6-1")
	if err != nil {
		t.Fatalf("log text: %v", err)
	}
	if rec.Nutrition.Protein != 0 {
		t.Fatalf("negative field must clamp to zero, got %+v", rec.Nutrition)
	}
	s, _ := svc.DailySummary(context.Background(), "6", "2025-03-01")
	if s.TotalProtein != 0 || s.TotalCalories != 200 {
		t.Fatalf("summary picked up a negative figure: %+v", s)
	}
}

func TestHistoryChronological(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"m8-3", "m8-1", "m8-2"} {
		rec := &models.MealRecord{
			ID:        id,
			UserID:    "8",
			Timestamp: base.Add(time.Duration((3-i)*2) * time.Hour),
			Nutrition: models.Nutrition{Calories: 100},
		}
		if err := store.SaveMeal(context.Background(), rec); err != nil {
			t.Fatalf("seed meal %s: %v", id, err)
		}
	}

	svc := newTestService(store, stubRecognizer{}, stubResolver{})
	meals, err := svc.MealHistory(context.Background(), "8", base)
	if err != nil {
		t.Fatalf("meal history: %v", err)
	}
	if len(meals) != 3 {
		t.Fatalf("expected 3 meals, got %d", len(meals))
	}
	for i := 1; i < len(meals); i++ {
		if meals[i].Timestamp.Before(meals[i-1].Timestamp) {
			t.Fatalf("history not chronological: %v", meals)
		}
	}
}
