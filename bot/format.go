package bot

import (
	"fmt"
	"strings"

	"github.com/ngfenglong/JiakAIBot/models"
)

// Reporter: pure formatting of store data into user-facing messages.
// Nothing in this file talks to Telegram or the store.

func FormatWelcome() string {
	return "🍽️ Welcome to JiakAI! I'm your personal food tracking assistant.\n\n" +
		"How to log your meals:\n" +
		"📸 Send a photo of your food\n" +
		"💬 Describe what you ate (e.g. 'chicken rice', '2 eggs and toast')\n\n" +
		"📊 /summary — today's nutrition\n" +
		"📝 /history — past meals\n" +
		"📈 /trends — last 7 days\n" +
		"❓ /help — more information"
}

func FormatHelp() string {
	return "🤖 JiakAI commands:\n\n" +
		"/start — initialize the bot\n" +
		"/summary — today's nutrition summary\n" +
		"/history [YYYY-MM-DD] — meals for a day\n" +
		"/trends — 7-day overview\n" +
		"/help — this message\n\n" +
		"📸 Send a photo of your meal for analysis, or just describe it in text."
}

func FormatAccessDenied() string {
	return "🚫 Access restricted\n\n" +
		"This is an internal tool with limited access. " +
		"If you'd like to use JiakAI, tap the button below and your request " +
		"will be reviewed by an administrator.\n\n" +
		"Only your Telegram ID and username are collected, for identification."
}

func FormatAccessRequestResult(created bool) string {
	if created {
		return "✅ Access request submitted. You'll be able to use the bot once an administrator approves it."
	}
	return "ℹ️ You have already requested access. Please wait for administrator review."
}

// FormatDailySummary renders the day's aggregate. label is the friendly
// date ("Today", "Jan 02").
func FormatDailySummary(s *models.DailySummary, label string) string {
	if s.MealCount == 0 {
		return fmt.Sprintf("📊 %s: no meals logged yet.\nSend a photo or description of your meal to get started!", label)
	}
	return fmt.Sprintf(
		"📊 Nutrition summary — %s\n\n"+
			"🔥 Calories: %.0f kcal\n"+
			"🥩 Protein: %.1f g\n"+
			"🍞 Carbs: %.1f g\n"+
			"🥑 Fat: %.1f g\n\n"+
			"🍽️ Meals logged: %d",
		label, s.TotalCalories, s.TotalProtein, s.TotalCarbs, s.TotalFat, s.MealCount,
	)
}

// FormatMealHistory renders the day's records, oldest first.
func FormatMealHistory(label string, meals []models.MealRecord) string {
	if len(meals) == 0 {
		return fmt.Sprintf("📝 %s: no meals logged.", label)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Meals — %s\n", label)
	for i, m := range meals {
		icon := "💬"
		if m.InputKind == models.InputPhoto {
			icon = "📸"
		}
		fmt.Fprintf(&b, "\n%d. %s %s — %s\n   %.0f kcal · P %.1fg · C %.1fg · F %.1fg\n",
			i+1, icon, m.Timestamp.Format("15:04"), m.FoodDescription,
			m.Nutrition.Calories, m.Nutrition.Protein, m.Nutrition.Carbs, m.Nutrition.Fat)
	}
	return b.String()
}

// FormatTrends renders a multi-day overview with per-day averages.
func FormatTrends(points []models.TrendPoint) string {
	if len(points) == 0 {
		return "📈 No meals logged in the last 7 days."
	}
	var b strings.Builder
	b.WriteString("📈 Last 7 days\n")
	var totalCalories float64
	var totalMeals int64
	for _, p := range points {
		fmt.Fprintf(&b, "\n%s — %.0f kcal, %d meal(s)", p.Date, p.Calories, p.Meals)
		totalCalories += p.Calories
		totalMeals += p.Meals
	}
	fmt.Fprintf(&b, "\n\nActive days: %d\nAvg calories/active day: %.0f\nTotal meals: %d",
		len(points), totalCalories/float64(len(points)), totalMeals)
	return b.String()
}

// FormatMealConfirmation renders a freshly logged meal together with the
// day's running totals.
func FormatMealConfirmation(rec *models.MealRecord, today *models.DailySummary) string {
	var b strings.Builder
	b.WriteString("✅ Meal logged!\n\n")
	fmt.Fprintf(&b, "🍽️ %s\n", rec.FoodDescription)
	if rec.PortionMultiplier > 0 && rec.PortionMultiplier != 1.0 {
		fmt.Fprintf(&b, "⚖️ Portion: %.2gx\n", rec.PortionMultiplier)
	}
	fmt.Fprintf(&b,
		"\n🔥 Calories: %.0f kcal\n🥩 Protein: %.1f g\n🍞 Carbs: %.1f g\n🥑 Fat: %.1f g\n",
		rec.Nutrition.Calories, rec.Nutrition.Protein, rec.Nutrition.Carbs, rec.Nutrition.Fat)
	if today != nil {
		fmt.Fprintf(&b, "\n📊 Today so far: %.0f kcal over %d meal(s)", today.TotalCalories, today.MealCount)
	}
	return b.String()
}
