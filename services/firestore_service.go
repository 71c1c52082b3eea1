package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ngfenglong/JiakAIBot/models"
	"github.com/ngfenglong/JiakAIBot/utils"
)

const (
	usersCollection          = "users"
	mealsCollection          = "meals"
	summariesCollection      = "summaries"
	accessRequestsCollection = "access_requests"
)

// FirestoreService is the Meal Log Store. Meals live under
// users/{id}/meals, daily summaries under users/{id}/summaries keyed by
// date. The meal append and the summary increment commit as one
// transaction, so a summary can never drift from its records at rest.
type FirestoreService struct {
	client *firestore.Client
}

func NewFirestoreService(ctx context.Context, projectID, credentialsFile string) (*FirestoreService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firestore client: %w", err)
	}
	return &FirestoreService{client: client}, nil
}

func (s *FirestoreService) Close() error {
	return s.client.Close()
}

func (s *FirestoreService) userDoc(userID string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(userID)
}

// EnsureUser creates the user document on first contact and touches
// last_active on every later one.
func (s *FirestoreService) EnsureUser(ctx context.Context, userID string) error {
	ref := s.userDoc(userID)
	_, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		now := time.Now()
		_, err = ref.Create(ctx, models.User{TelegramID: userID, CreatedAt: now, LastActive: now})
		// A concurrent first contact may have won the race; that is fine.
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return s.writeErr("create user", err)
	}
	if err != nil {
		return s.writeErr("load user", err)
	}
	_, err = ref.Update(ctx, []firestore.Update{{Path: "last_active", Value: firestore.ServerTimestamp}})
	return s.writeErr("touch user", err)
}

// SaveMeal appends one immutable meal record and increments the matching
// daily summary in a single transaction. The record's id is its
// idempotency key: if the same id was already written, the call fails
// with ErrDuplicateMeal and the summary is left untouched, so a retried
// message cannot be accounted twice.
func (s *FirestoreService) SaveMeal(ctx context.Context, rec *models.MealRecord) error {
	dateKey := utils.DateKey(rec.Timestamp)
	mealRef := s.userDoc(rec.UserID).Collection(mealsCollection).Doc(rec.ID)
	summaryRef := s.userDoc(rec.UserID).Collection(summariesCollection).Doc(dateKey)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must happen before any write in a Firestore transaction.
		if _, err := tx.Get(mealRef); err == nil {
			return ErrDuplicateMeal
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		_, summaryErr := tx.Get(summaryRef)
		if summaryErr != nil && status.Code(summaryErr) != codes.NotFound {
			return summaryErr
		}

		if err := tx.Create(mealRef, rec); err != nil {
			return err
		}

		n := rec.Nutrition
		if status.Code(summaryErr) == codes.NotFound {
			now := time.Now()
			return tx.Create(summaryRef, models.DailySummary{
				UserID:        rec.UserID,
				Date:          dateKey,
				TotalCalories: n.Calories,
				TotalProtein:  n.Protein,
				TotalCarbs:    n.Carbs,
				TotalFat:      n.Fat,
				TotalFiber:    n.Fiber,
				TotalSugar:    n.Sugar,
				TotalSodium:   n.Sodium,
				MealCount:     1,
				CreatedAt:     now,
				LastUpdated:   now,
			})
		}
		// Atomic increments; the summary is never read-modify-written at
		// the application layer.
		return tx.Update(summaryRef, []firestore.Update{
			{Path: "total_calories", Value: firestore.Increment(n.Calories)},
			{Path: "total_protein", Value: firestore.Increment(n.Protein)},
			{Path: "total_carbs", Value: firestore.Increment(n.Carbs)},
			{Path: "total_fat", Value: firestore.Increment(n.Fat)},
			{Path: "total_fiber", Value: firestore.Increment(n.Fiber)},
			{Path: "total_sugar", Value: firestore.Increment(n.Sugar)},
			{Path: "total_sodium", Value: firestore.Increment(n.Sodium)},
			{Path: "meal_count", Value: firestore.Increment(1)},
			{Path: "last_updated", Value: firestore.ServerTimestamp},
		})
	})

	if errors.Is(err, ErrDuplicateMeal) || status.Code(err) == codes.AlreadyExists {
		return ErrDuplicateMeal
	}
	return s.writeErr("save meal", err)
}

// DailySummary returns the summary for (user, date). A day with no meals
// yields the zero-value summary, never an error.
func (s *FirestoreService) DailySummary(ctx context.Context, userID, date string) (*models.DailySummary, error) {
	snap, err := s.userDoc(userID).Collection(summariesCollection).Doc(date).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.EmptyDailySummary(userID, date), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load summary %s/%s: %v", ErrStoreRead, userID, date, err)
	}
	var summary models.DailySummary
	if err := snap.DataTo(&summary); err != nil {
		return nil, fmt.Errorf("%w: decode summary %s/%s: %v", ErrStoreRead, userID, date, err)
	}
	return &summary, nil
}

// MealsForDate returns the day's meal records in chronological order;
// an empty slice when there are none.
func (s *FirestoreService) MealsForDate(ctx context.Context, userID string, day time.Time) ([]models.MealRecord, error) {
	start, end := utils.DayWindow(day)
	iter := s.userDoc(userID).Collection(mealsCollection).
		Where("timestamp", ">=", start).
		Where("timestamp", "<", end).
		OrderBy("timestamp", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	meals := []models.MealRecord{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list meals for %s: %v", ErrStoreRead, userID, err)
		}
		var rec models.MealRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("%w: decode meal %s: %v", ErrStoreRead, doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		meals = append(meals, rec)
	}
	return meals, nil
}

// TrendData reads back the last `days` stored summaries, oldest first.
// Days without meals are simply absent.
func (s *FirestoreService) TrendData(ctx context.Context, userID string, days int) ([]models.TrendPoint, error) {
	since := utils.DateKey(time.Now().AddDate(0, 0, -(days - 1)))
	iter := s.userDoc(userID).Collection(summariesCollection).
		Where("date", ">=", since).
		OrderBy("date", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	points := []models.TrendPoint{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: load trend data for %s: %v", ErrStoreRead, userID, err)
		}
		var summary models.DailySummary
		if err := doc.DataTo(&summary); err != nil {
			return nil, fmt.Errorf("%w: decode summary %s: %v", ErrStoreRead, doc.Ref.ID, err)
		}
		points = append(points, models.TrendPoint{
			Date:     summary.Date,
			Calories: summary.TotalCalories,
			Protein:  summary.TotalProtein,
			Carbs:    summary.TotalCarbs,
			Fat:      summary.TotalFat,
			Meals:    summary.MealCount,
		})
	}
	return points, nil
}

// SaveAccessRequest records an access request once per user. Returns
// false when the user already has a pending request.
func (s *FirestoreService) SaveAccessRequest(ctx context.Context, req *models.AccessRequest) (bool, error) {
	_, err := s.client.Collection(accessRequestsCollection).Doc(req.UserID).Create(ctx, req)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, s.writeErr("save access request", err)
	}
	return true, nil
}

// ListAccessRequests returns all recorded requests, oldest first, for
// manual review.
func (s *FirestoreService) ListAccessRequests(ctx context.Context) ([]models.AccessRequest, error) {
	iter := s.client.Collection(accessRequestsCollection).
		OrderBy("requested_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	requests := []models.AccessRequest{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list access requests: %v", ErrStoreRead, err)
		}
		var req models.AccessRequest
		if err := doc.DataTo(&req); err != nil {
			return nil, fmt.Errorf("%w: decode access request %s: %v", ErrStoreRead, doc.Ref.ID, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *FirestoreService) writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
