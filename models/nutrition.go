package models

// Nutrition holds the macro figures for a meal or a single food item.
// Every field defaults to zero; a missing figure from the resolver is
// treated as zero, never as an error.
type Nutrition struct {
	Calories float64 `firestore:"calories" json:"calories"`
	Protein  float64 `firestore:"protein" json:"protein"`
	Carbs    float64 `firestore:"carbs" json:"carbs"`
	Fat      float64 `firestore:"fat" json:"fat"`
	Fiber    float64 `firestore:"fiber" json:"fiber"`
	Sugar    float64 `firestore:"sugar" json:"sugar"`
	Sodium   float64 `firestore:"sodium" json:"sodium"`
}

// NonNegative clamps every field to zero or above.
func (n Nutrition) NonNegative() Nutrition {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}
	return Nutrition{
		Calories: clamp(n.Calories),
		Protein:  clamp(n.Protein),
		Carbs:    clamp(n.Carbs),
		Fat:      clamp(n.Fat),
		Fiber:    clamp(n.Fiber),
		Sugar:    clamp(n.Sugar),
		Sodium:   clamp(n.Sodium),
	}
}

func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
		Sodium:   n.Sodium + o.Sodium,
	}
}

// Scale multiplies every field by a portion factor.
func (n Nutrition) Scale(factor float64) Nutrition {
	return Nutrition{
		Calories: n.Calories * factor,
		Protein:  n.Protein * factor,
		Carbs:    n.Carbs * factor,
		Fat:      n.Fat * factor,
		Fiber:    n.Fiber * factor,
		Sugar:    n.Sugar * factor,
		Sodium:   n.Sodium * factor,
	}
}
