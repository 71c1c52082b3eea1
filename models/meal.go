package models

import "time"

type InputKind string

const (
	InputPhoto InputKind = "photo"
	InputText  InputKind = "text"
)

// MealRecord is one persisted result of analyzing a single food input.
// Records are immutable once written.
type MealRecord struct {
	// ID doubles as the idempotency key: a retried message maps to the
	// same document id, so it can never be accounted twice.
	ID     string `firestore:"-" json:"id"`
	UserID string `firestore:"user_id" json:"user_id"`

	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	InputKind InputKind `firestore:"input_kind" json:"input_kind"`
	// InputRef is the original text, or an opaque reference to the photo
	// (archive object key, or the platform file id). Never raw image bytes.
	InputRef string `firestore:"input_ref" json:"input_ref"`

	FoodDescription   string  `firestore:"food_description" json:"food_description"`
	Confidence        string  `firestore:"confidence" json:"confidence"`
	PortionMultiplier float64 `firestore:"portion_multiplier" json:"portion_multiplier"`

	Nutrition Nutrition `firestore:"nutrition" json:"nutrition"`

	// Opaque snapshots of the two external API responses, kept for audit.
	RecognizerSnapshot []byte `firestore:"recognizer_snapshot" json:"-"`
	ResolverSnapshot   []byte `firestore:"resolver_snapshot" json:"-"`
}
