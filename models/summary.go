package models

import "time"

// DailySummary is the per-user, per-date running aggregate of meal records.
// It is derived data: at rest its totals always equal the sum over the
// day's MealRecords, and MealCount equals their number.
type DailySummary struct {
	UserID string `firestore:"user_id" json:"user_id"`
	// Date is the calendar date key, YYYY-MM-DD.
	Date string `firestore:"date" json:"date"`

	TotalCalories float64 `firestore:"total_calories" json:"total_calories"`
	TotalProtein  float64 `firestore:"total_protein" json:"total_protein"`
	TotalCarbs    float64 `firestore:"total_carbs" json:"total_carbs"`
	TotalFat      float64 `firestore:"total_fat" json:"total_fat"`
	TotalFiber    float64 `firestore:"total_fiber" json:"total_fiber"`
	TotalSugar    float64 `firestore:"total_sugar" json:"total_sugar"`
	TotalSodium   float64 `firestore:"total_sodium" json:"total_sodium"`

	MealCount int64 `firestore:"meal_count" json:"meal_count"`

	CreatedAt   time.Time `firestore:"created_at" json:"created_at"`
	LastUpdated time.Time `firestore:"last_updated" json:"last_updated"`
}

// EmptyDailySummary is what a day with no meals looks like: all zeros,
// count zero. Reading a missing summary yields this, never an error.
func EmptyDailySummary(userID, date string) *DailySummary {
	return &DailySummary{UserID: userID, Date: date}
}

// Totals returns the summary's running totals as a Nutrition value.
func (d *DailySummary) Totals() Nutrition {
	return Nutrition{
		Calories: d.TotalCalories,
		Protein:  d.TotalProtein,
		Carbs:    d.TotalCarbs,
		Fat:      d.TotalFat,
		Fiber:    d.TotalFiber,
		Sugar:    d.TotalSugar,
		Sodium:   d.TotalSodium,
	}
}

// TrendPoint is one day of a multi-day trend report, read back from the
// stored summaries.
type TrendPoint struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int64   `json:"meals"`
}
