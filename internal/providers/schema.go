package providers

import (
	"fmt"
	"strings"

	"fitserver/internal/domain"
)

// Schema declares the structural contract expected from provider output for
// one category. Shape is embedded verbatim into the prompt so the model
// answers with matching JSON; validation happens in domain.ParseArtifact.
type Schema struct {
	Category domain.Category
	Shape    string
}

// SchemaFor returns the canonical schema for a category.
func SchemaFor(category domain.Category) Schema {
	switch category {
	case domain.CategoryWorkout:
		return Schema{Category: category, Shape: `{"title":string,"level":string,"days_per_week":int,"days":[{"name":string,"focus":string,"exercises":[{"name":string,"sets":int,"reps":string,"rest_sec":int}]}]}`}
	case domain.CategoryMeal:
		return Schema{Category: category, Shape: `{"title":string,"dietary_style":string,"calories_target":int,"days":[{"name":string,"total_calories":int,"meals":[{"name":string,"items":[{"name":string,"grams":int,"calories":int}]}]}]}`}
	case domain.CategoryInbodyScan:
		return Schema{Category: category, Shape: `{"weight_kg":number,"skeletal_muscle_kg":number,"body_fat_percent":number,"bmi":number,"measured_at":string}`}
	case domain.CategoryBodyPhoto:
		return Schema{Category: category, Shape: `{"summary":string,"posture_notes":[string],"estimated_fat_percent":number,"focus_suggestions":[string]}`}
	}
	return Schema{Category: category}
}

// BuildPrompt composes the generation instruction for a category and payload.
func BuildPrompt(category domain.Category, payload domain.Payload) string {
	schema := SchemaFor(category)
	locale := payload.Locale
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	switch category {
	case domain.CategoryWorkout:
		fmt.Fprintf(sb, "You are a certified strength coach. Create a weekly workout plan. Respond strictly with JSON matching this schema: %s. ", schema.Shape)
		fmt.Fprintf(sb, "Input: goal=%q, level=%q, days_per_week=%d, notes=%q.", payload.Goal, payload.Level, payload.DaysPerWeek, payload.Notes)
	case domain.CategoryMeal:
		fmt.Fprintf(sb, "You are a sports nutritionist. Create a weekly meal plan. Respond strictly with JSON matching this schema: %s. ", schema.Shape)
		fmt.Fprintf(sb, "Input: goal=%q, dietary_style=%q, calories_target=%d, notes=%q.", payload.Goal, payload.DietaryStyle, payload.CaloriesTarget, payload.Notes)
	case domain.CategoryInbodyScan:
		fmt.Fprintf(sb, "Extract every legible body-composition metric from the attached InBody scan sheet. Respond strictly with JSON matching this schema: %s. ", schema.Shape)
		sb.WriteString("Do not estimate values that are not printed on the sheet.")
	case domain.CategoryBodyPhoto:
		fmt.Fprintf(sb, "You are a fitness assessor. Analyze the attached body photo for posture and composition. Respond strictly with JSON matching this schema: %s. ", schema.Shape)
		fmt.Fprintf(sb, "Input: goal=%q, notes=%q.", payload.Goal, payload.Notes)
	}
	fmt.Fprintf(sb, " Use locale '%s' for all human-readable text.", locale)
	return sb.String()
}

// extractJSONFragment trims code fences and surrounding prose from model
// output, keeping only the outermost JSON value.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
