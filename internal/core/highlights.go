package core

import (
	"time"

	"github.com/google/uuid"
)

type Bucket string

const (
	BucketHealth    Bucket = "health"
	BucketLifestyle Bucket = "lifestyle"
	BucketGoals     Bucket = "goals"
)

// Buckets lists the highlight buckets in render order.
var Buckets = []Bucket{BucketHealth, BucketLifestyle, BucketGoals}

func (b Bucket) Title() string {
	switch b {
	case BucketHealth:
		return "Health"
	case BucketLifestyle:
		return "Lifestyle"
	case BucketGoals:
		return "Goals & Motivation"
	}
	return string(b)
}

type HighlightField string

const (
	FieldAllergies            HighlightField = "allergies"
	FieldHealthConcerns       HighlightField = "health_concerns"
	FieldMedications          HighlightField = "medications"
	FieldFamilyHealth         HighlightField = "family_health"
	FieldSleepSchedule        HighlightField = "sleep_schedule"
	FieldWorkSchedule         HighlightField = "work_schedule"
	FieldExercisePreferences  HighlightField = "exercise_preferences"
	FieldNutritionPreferences HighlightField = "nutrition_preferences"
	FieldStressSources        HighlightField = "stress_sources"
	FieldCommunicationStyle   HighlightField = "communication_style"
	FieldGoalsMentioned       HighlightField = "goals_mentioned"
	FieldMotivationFactors    HighlightField = "motivation_factors"
)

var bucketFields = map[Bucket][]HighlightField{
	BucketHealth: {
		FieldAllergies,
		FieldHealthConcerns,
		FieldMedications,
		FieldFamilyHealth,
		FieldSleepSchedule,
	},
	BucketLifestyle: {
		FieldWorkSchedule,
		FieldExercisePreferences,
		FieldNutritionPreferences,
		FieldStressSources,
		FieldCommunicationStyle,
	},
	BucketGoals: {
		FieldGoalsMentioned,
		FieldMotivationFactors,
	},
}

var fieldLabels = map[HighlightField]string{
	FieldAllergies:            "Allergies",
	FieldHealthConcerns:       "Health concerns",
	FieldMedications:          "Medications",
	FieldFamilyHealth:         "Family health",
	FieldSleepSchedule:        "Sleep schedule",
	FieldWorkSchedule:         "Work schedule",
	FieldExercisePreferences:  "Exercise preferences",
	FieldNutritionPreferences: "Nutrition preferences",
	FieldStressSources:        "Stress sources",
	FieldCommunicationStyle:   "Communication style",
	FieldGoalsMentioned:       "Goals mentioned",
	FieldMotivationFactors:    "Motivation factors",
}

// Fields returns the fixed field set of a bucket in render order.
func (b Bucket) Fields() []HighlightField {
	return bucketFields[b]
}

// AllFields returns every field of every bucket.
func AllFields() []HighlightField {
	var out []HighlightField
	for _, b := range Buckets {
		out = append(out, bucketFields[b]...)
	}
	return out
}

func (f HighlightField) Bucket() (Bucket, bool) {
	for _, b := range Buckets {
		for _, field := range bucketFields[b] {
			if field == f {
				return b, true
			}
		}
	}
	return "", false
}

func (f HighlightField) Valid() bool {
	_, ok := f.Bucket()
	return ok
}

func (f HighlightField) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

type Granularity string

const (
	GranularityVerbatim  Granularity = "verbatim"
	GranularityCompacted Granularity = "compacted"
)

type Highlight struct {
	ID              uuid.UUID      `json:"id"`
	UserID          string         `json:"user_id"`
	Field           HighlightField `json:"field"`
	Value           string         `json:"value"`
	Granularity     Granularity    `json:"granularity"`
	SourceMessageID *uuid.UUID     `json:"source_message_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	CompactedAt     *time.Time     `json:"compacted_at,omitempty"`
}

// Age is measured from creation, so a compacted highlight keeps the age of
// its oldest source.
func (h Highlight) Age(now time.Time) time.Duration {
	return now.Sub(h.CreatedAt)
}
