package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload carries category-specific generation parameters supplied by the
// client. Fields irrelevant to a category are simply left empty.
type Payload struct {
	Goal           string `json:"goal,omitempty"`
	Level          string `json:"level,omitempty"`
	DaysPerWeek    int    `json:"days_per_week,omitempty"`
	DietaryStyle   string `json:"dietary_style,omitempty"`
	CaloriesTarget int    `json:"calories_target,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`
	Locale         string `json:"locale,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// ValidateFor checks the payload against the requirements of a category.
func (p Payload) ValidateFor(category Category) error {
	if category.VisionBased() && strings.TrimSpace(p.ImageRef) == "" {
		return fmt.Errorf("%w: image_ref required for %s", ErrInvalidPayload, category)
	}
	return nil
}

// WorkoutExercise is one prescribed exercise within a workout day.
type WorkoutExercise struct {
	Name    string `json:"name"`
	Sets    int    `json:"sets"`
	Reps    string `json:"reps"`
	RestSec int    `json:"rest_sec,omitempty"`
}

// WorkoutDay groups exercises for a single training day.
type WorkoutDay struct {
	Name      string            `json:"name"`
	Focus     string            `json:"focus,omitempty"`
	Exercises []WorkoutExercise `json:"exercises"`
}

// WorkoutPlan is the structured artifact produced for workout generation.
type WorkoutPlan struct {
	Title       string       `json:"title"`
	Level       string       `json:"level,omitempty"`
	DaysPerWeek int          `json:"days_per_week"`
	Days        []WorkoutDay `json:"days"`
}

// MealItem is one food entry within a meal.
type MealItem struct {
	Name     string `json:"name"`
	Grams    int    `json:"grams,omitempty"`
	Calories int    `json:"calories"`
}

// Meal groups food items for a single sitting.
type Meal struct {
	Name  string     `json:"name"`
	Items []MealItem `json:"items"`
}

// MealDay groups meals for one day of the plan.
type MealDay struct {
	Name          string `json:"name"`
	Meals         []Meal `json:"meals"`
	TotalCalories int    `json:"total_calories,omitempty"`
}

// MealPlan is the structured artifact produced for meal generation.
type MealPlan struct {
	Title          string    `json:"title"`
	DietaryStyle   string    `json:"dietary_style,omitempty"`
	CaloriesTarget int       `json:"calories_target,omitempty"`
	Days           []MealDay `json:"days"`
}

// InbodyReport carries body-composition metrics extracted from a scan image.
// There is no safe static fallback for this artifact.
type InbodyReport struct {
	WeightKg         float64 `json:"weight_kg"`
	SkeletalMuscleKg float64 `json:"skeletal_muscle_kg"`
	BodyFatPercent   float64 `json:"body_fat_percent"`
	BMI              float64 `json:"bmi,omitempty"`
	MeasuredAt       string  `json:"measured_at,omitempty"`
}

// BodyPhotoAnalysis is the structured artifact for body-photo assessment.
type BodyPhotoAnalysis struct {
	Summary          string   `json:"summary"`
	PostureNotes     []string `json:"posture_notes,omitempty"`
	EstimatedFatPct  float64  `json:"estimated_fat_percent,omitempty"`
	FocusSuggestions []string `json:"focus_suggestions,omitempty"`
}

// Artifact is the tagged union of category results. Exactly one of the
// pointers is set, matching Category.
type Artifact struct {
	Category  Category           `json:"category"`
	Workout   *WorkoutPlan       `json:"workout,omitempty"`
	Meal      *MealPlan          `json:"meal,omitempty"`
	Inbody    *InbodyReport      `json:"inbody,omitempty"`
	BodyPhoto *BodyPhotoAnalysis `json:"body_photo,omitempty"`
}

// ParseArtifact decodes raw provider output into the artifact shape declared
// for the category and validates its structural contract.
func ParseArtifact(category Category, raw []byte) (*Artifact, error) {
	a := &Artifact{Category: category}
	var err error
	switch category {
	case CategoryWorkout:
		a.Workout = &WorkoutPlan{}
		err = json.Unmarshal(raw, a.Workout)
	case CategoryMeal:
		a.Meal = &MealPlan{}
		err = json.Unmarshal(raw, a.Meal)
	case CategoryInbodyScan:
		a.Inbody = &InbodyReport{}
		err = json.Unmarshal(raw, a.Inbody)
	case CategoryBodyPhoto:
		a.BodyPhoto = &BodyPhotoAnalysis{}
		err = json.Unmarshal(raw, a.BodyPhoto)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidArtifact, category, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the structural contract of the populated variant.
func (a *Artifact) Validate() error {
	switch a.Category {
	case CategoryWorkout:
		if a.Workout == nil || a.Workout.Title == "" || len(a.Workout.Days) == 0 {
			return fmt.Errorf("%w: workout plan requires a title and at least one day", ErrInvalidArtifact)
		}
		for _, day := range a.Workout.Days {
			if len(day.Exercises) == 0 {
				return fmt.Errorf("%w: workout day %q has no exercises", ErrInvalidArtifact, day.Name)
			}
		}
	case CategoryMeal:
		if a.Meal == nil || a.Meal.Title == "" || len(a.Meal.Days) == 0 {
			return fmt.Errorf("%w: meal plan requires a title and at least one day", ErrInvalidArtifact)
		}
		for _, day := range a.Meal.Days {
			if len(day.Meals) == 0 {
				return fmt.Errorf("%w: meal day %q has no meals", ErrInvalidArtifact, day.Name)
			}
		}
	case CategoryInbodyScan:
		if a.Inbody == nil || a.Inbody.WeightKg <= 0 || a.Inbody.BodyFatPercent < 0 || a.Inbody.BodyFatPercent > 100 {
			return fmt.Errorf("%w: inbody report metrics out of range", ErrInvalidArtifact)
		}
	case CategoryBodyPhoto:
		if a.BodyPhoto == nil || strings.TrimSpace(a.BodyPhoto.Summary) == "" {
			return fmt.Errorf("%w: body photo analysis requires a summary", ErrInvalidArtifact)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategory, a.Category)
	}
	return nil
}
