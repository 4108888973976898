package providers

import "fitserver/internal/domain"

// StaticProviderName marks artifacts produced by the deterministic fallback.
const StaticProviderName = "static"

// StaticArtifact returns the deterministic template artifact for a category,
// or nil when no safe fallback exists. Vision-based metric extraction has no
// template: inventing body-composition numbers would be worse than failing.
func StaticArtifact(category domain.Category) *domain.Artifact {
	switch category {
	case domain.CategoryWorkout:
		return &domain.Artifact{Category: category, Workout: staticWorkoutPlan()}
	case domain.CategoryMeal:
		return &domain.Artifact{Category: category, Meal: staticMealPlan()}
	case domain.CategoryBodyPhoto:
		return &domain.Artifact{Category: category, BodyPhoto: staticBodyPhotoAnalysis()}
	}
	return nil
}

func staticWorkoutPlan() *domain.WorkoutPlan {
	return &domain.WorkoutPlan{
		Title:       "Full Body Starter",
		Level:       "beginner",
		DaysPerWeek: 3,
		Days: []domain.WorkoutDay{
			{
				Name:  "Day 1",
				Focus: "full body",
				Exercises: []domain.WorkoutExercise{
					{Name: "Goblet Squat", Sets: 3, Reps: "10-12", RestSec: 90},
					{Name: "Push-Up", Sets: 3, Reps: "8-12", RestSec: 60},
					{Name: "One-Arm Row", Sets: 3, Reps: "10-12", RestSec: 60},
				},
			},
			{
				Name:  "Day 2",
				Focus: "full body",
				Exercises: []domain.WorkoutExercise{
					{Name: "Romanian Deadlift", Sets: 3, Reps: "8-10", RestSec: 90},
					{Name: "Overhead Press", Sets: 3, Reps: "8-10", RestSec: 90},
					{Name: "Plank", Sets: 3, Reps: "30-45s", RestSec: 45},
				},
			},
			{
				Name:  "Day 3",
				Focus: "full body",
				Exercises: []domain.WorkoutExercise{
					{Name: "Lunge", Sets: 3, Reps: "10 per leg", RestSec: 60},
					{Name: "Lat Pulldown", Sets: 3, Reps: "10-12", RestSec: 60},
					{Name: "Farmer Carry", Sets: 3, Reps: "30m", RestSec: 90},
				},
			},
		},
	}
}

func staticMealPlan() *domain.MealPlan {
	day := domain.MealDay{
		Name:          "Day 1",
		TotalCalories: 2000,
		Meals: []domain.Meal{
			{Name: "Breakfast", Items: []domain.MealItem{
				{Name: "Oatmeal", Grams: 80, Calories: 300},
				{Name: "Greek Yogurt", Grams: 150, Calories: 150},
			}},
			{Name: "Lunch", Items: []domain.MealItem{
				{Name: "Grilled Chicken Breast", Grams: 150, Calories: 250},
				{Name: "Brown Rice", Grams: 150, Calories: 170},
				{Name: "Mixed Vegetables", Grams: 150, Calories: 80},
			}},
			{Name: "Dinner", Items: []domain.MealItem{
				{Name: "Baked Salmon", Grams: 150, Calories: 300},
				{Name: "Sweet Potato", Grams: 200, Calories: 180},
				{Name: "Salad", Grams: 100, Calories: 50},
			}},
		},
	}
	return &domain.MealPlan{
		Title:          "Balanced Week",
		DietaryStyle:   "balanced",
		CaloriesTarget: 2000,
		Days:           []domain.MealDay{day},
	}
}

func staticBodyPhotoAnalysis() *domain.BodyPhotoAnalysis {
	return &domain.BodyPhotoAnalysis{
		Summary:      "Automated analysis was unavailable; a general assessment template was applied.",
		PostureNotes: []string{"Review shoulder alignment with a coach", "Check for anterior pelvic tilt"},
		FocusSuggestions: []string{
			"Track progress with consistent lighting and camera angle",
			"Pair photos with a body-composition measurement",
		},
	}
}
