package notify

import (
	"golang.org/x/text/language"

	"fitserver/internal/domain"
	"fitserver/internal/events"
)

// message is one resolved notification template.
type message struct {
	Title string
	Body  string
}

// supportedLanguages orders the languages the template table covers. The
// first entry is the matcher's ultimate fallback.
var supportedLanguages = []language.Tag{
	language.English,
	language.Korean,
	language.Indonesian,
}

var languageNames = map[language.Tag]string{
	language.English:    "en",
	language.Korean:     "ko",
	language.Indonesian: "id",
}

// templates is the fixed per-category, per-outcome, per-language table.
// Every category/outcome pair must carry every supported language so
// resolution never produces an empty string.
var templates = map[domain.Category]map[events.Outcome]map[string]message{
	domain.CategoryWorkout: {
		events.OutcomeCompleted: {
			"en": {"Workout plan ready", "Your new workout plan has been generated. Open the app to start training."},
			"ko": {"운동 계획 완성", "새 운동 계획이 준비되었습니다. 앱에서 확인하고 운동을 시작하세요."},
			"id": {"Rencana latihan siap", "Rencana latihan baru Anda sudah dibuat. Buka aplikasi untuk mulai berlatih."},
		},
		events.OutcomeFailed: {
			"en": {"Workout plan failed", "We could not generate your workout plan. Please try again later."},
			"ko": {"운동 계획 생성 실패", "운동 계획을 생성하지 못했습니다. 잠시 후 다시 시도해주세요."},
			"id": {"Rencana latihan gagal", "Kami tidak dapat membuat rencana latihan Anda. Silakan coba lagi nanti."},
		},
	},
	domain.CategoryMeal: {
		events.OutcomeCompleted: {
			"en": {"Meal plan ready", "Your new meal plan has been generated. Check the app for this week's menu."},
			"ko": {"식단 완성", "새 식단이 준비되었습니다. 앱에서 이번 주 메뉴를 확인하세요."},
			"id": {"Rencana makan siap", "Rencana makan baru Anda sudah dibuat. Lihat menu minggu ini di aplikasi."},
		},
		events.OutcomeFailed: {
			"en": {"Meal plan failed", "We could not generate your meal plan. Please try again later."},
			"ko": {"식단 생성 실패", "식단을 생성하지 못했습니다. 잠시 후 다시 시도해주세요."},
			"id": {"Rencana makan gagal", "Kami tidak dapat membuat rencana makan Anda. Silakan coba lagi nanti."},
		},
	},
	domain.CategoryInbodyScan: {
		events.OutcomeCompleted: {
			"en": {"Scan analyzed", "Your body composition scan has been analyzed. View the results in the app."},
			"ko": {"인바디 분석 완료", "체성분 분석이 완료되었습니다. 앱에서 결과를 확인하세요."},
			"id": {"Pindaian dianalisis", "Pindaian komposisi tubuh Anda sudah dianalisis. Lihat hasilnya di aplikasi."},
		},
		events.OutcomeFailed: {
			"en": {"Scan analysis failed", "We could not read your scan. Please retake the photo in good lighting."},
			"ko": {"인바디 분석 실패", "스캔을 읽지 못했습니다. 밝은 곳에서 다시 촬영해주세요."},
			"id": {"Analisis pindaian gagal", "Kami tidak dapat membaca pindaian Anda. Silakan foto ulang dengan pencahayaan baik."},
		},
	},
	domain.CategoryBodyPhoto: {
		events.OutcomeCompleted: {
			"en": {"Photo analysis ready", "Your body photo analysis is ready. Open the app to see the assessment."},
			"ko": {"사진 분석 완료", "바디 사진 분석이 완료되었습니다. 앱에서 평가를 확인하세요."},
			"id": {"Analisis foto siap", "Analisis foto tubuh Anda sudah siap. Buka aplikasi untuk melihat penilaian."},
		},
		events.OutcomeFailed: {
			"en": {"Photo analysis failed", "We could not analyze your photo. Please try again later."},
			"ko": {"사진 분석 실패", "사진을 분석하지 못했습니다. 잠시 후 다시 시도해주세요."},
			"id": {"Analisis foto gagal", "Kami tidak dapat menganalisis foto Anda. Silakan coba lagi nanti."},
		},
	},
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// resolveLanguage maps a requested locale onto a supported template
// language, falling back to the configured default and finally to English.
func resolveLanguage(requested, fallback string) string {
	for _, candidate := range []string{requested, fallback} {
		if candidate == "" {
			continue
		}
		tag, err := language.Parse(candidate)
		if err != nil {
			continue
		}
		_, idx, conf := languageMatcher.Match(tag)
		if conf >= language.High {
			return languageNames[supportedLanguages[idx]]
		}
	}
	return "en"
}

// resolveMessage returns the template for the category/outcome/language
// triple. The table is total over supported languages, so the result is
// never empty.
func resolveMessage(category domain.Category, outcome events.Outcome, lang string) message {
	byOutcome, ok := templates[category]
	if !ok {
		return message{Title: string(outcome), Body: string(outcome)}
	}
	byLang := byOutcome[outcome]
	if msg, ok := byLang[lang]; ok {
		return msg
	}
	return byLang["en"]
}
