package lang

import (
	"regexp"
	"strings"
)

// Language identifies the language of a piece of text.
type Language string

const (
	ArabicEgyptian Language = "ar_EG"
	ArabicFusha    Language = "ar"
	English        Language = "en"
	Mixed          Language = "mixed"
	Unknown        Language = "unknown"
)

// DisplayName returns the Arabic display name used in UI surfaces.
func (l Language) DisplayName() string {
	switch l {
	case ArabicEgyptian:
		return "اللهجة المصرية"
	case ArabicFusha:
		return "العربية الفصحى"
	case English:
		return "الإنجليزية"
	case Mixed:
		return "مختلط (عربي + إنجليزي)"
	default:
		return "غير معروف"
	}
}

// Go's \b is ASCII-only, so the Egyptian markers are anchored on
// whitespace or string edges instead of word boundaries.
var egyptianPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\s)(?:ازيك|إزيك|ازاى|إزاى|ايه|أيه)(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)(?:عامل ايه|عاملين ايه|عامل ايه ياسطا)(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)(?:تمام|ماشي|خلاص|بقا|يا عم|يا باشا)(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)(?:معلش|يا ريت|يعني|اصل|برضه|علشان)(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)(?:بص|اسمع|قول|روح|خش|جرب|شوف)(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)(?:فين|امتى|ليه|ازاي|كام|قد ايه)(?:\s|$)`),
}

// Education vocabulary written the colloquial way Egyptians spell it.
var egyptianEducationTerms = map[string]struct{}{
	"كليه": {}, "جامعه": {}, "دكتور": {}, "مدرسه": {}, "معهد": {},
	"توجيهي": {}, "ثانويه": {}, "ابتدائي": {}, "اعدادي": {},
	"محاضره": {}, "امتحان": {}, "منهج": {}, "ماده": {}, "سكاشن": {},
}

var (
	arabicChars  = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}]`)
	englishChars = regexp.MustCompile(`[a-zA-Z]`)
	symbolChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// trivialEnglish covers one-word openers too short for ratio analysis.
var trivialEnglish = map[string]struct{}{
	"hi": {}, "ok": {}, "yes": {}, "no": {}, "hey": {}, "hello": {},
}

// Detector classifies text as Egyptian Arabic, Modern Standard Arabic,
// English, or a mix of the two scripts.
type Detector struct{}

// NewDetector returns a ready-to-use detector. It holds no state and is
// safe for concurrent use.
func NewDetector() *Detector { return &Detector{} }

// Detect returns the detected language and a confidence in [0,1].
//
// Egyptian markers are checked first and win outright past 0.6. Below
// that, classification falls back to the ratio of Arabic to Latin
// characters, with mostly-Arabic text re-checked for a weaker Egyptian
// signal before being labeled Fusha.
func (d *Detector) Detect(text string) (Language, float64) {
	if strings.TrimSpace(text) == "" {
		return Unknown, 0.0
	}

	lowered := strings.ToLower(strings.TrimSpace(text))
	if _, ok := trivialEnglish[lowered]; ok {
		return English, 1.0
	}

	egyptianScore := d.egyptianScore(lowered)
	if egyptianScore > 0.6 {
		return ArabicEgyptian, egyptianScore
	}

	arabic := len(arabicChars.FindAllString(text, -1))
	english := len(englishChars.FindAllString(text, -1))
	other := len(symbolChars.FindAllString(text, -1))

	total := arabic + english + other
	if total < 1 {
		total = 1
	}
	arabicRatio := float64(arabic) / float64(total)
	englishRatio := float64(english) / float64(total)

	switch {
	case arabicRatio > 0.5:
		if egyptianScore > 0.3 {
			return ArabicEgyptian, (arabicRatio + egyptianScore) / 2
		}
		return ArabicFusha, arabicRatio
	case englishRatio > 0.5:
		return English, englishRatio
	case arabicRatio > 0.2 && englishRatio > 0.2:
		return Mixed, (arabicRatio + englishRatio) / 2
	case english > arabic:
		return English, 0.4
	case arabic > english:
		return ArabicEgyptian, 0.4
	default:
		return Unknown, 0.5
	}
}

// egyptianScore weighs dialect markers against colloquial education
// vocabulary. Markers dominate at 0.7 since they are the stronger signal.
func (d *Detector) egyptianScore(text string) float64 {
	if text == "" {
		return 0.0
	}

	// Every marker occurrence counts, so piling up markers from the
	// same group still strengthens the signal.
	matches := 0
	for _, p := range egyptianPatterns {
		matches += len(p.FindAllString(text, -1))
	}
	patternScore := float64(matches) / float64(len(egyptianPatterns))
	if patternScore > 1 {
		patternScore = 1
	}

	words := strings.Fields(text)
	eduWords := 0
	for _, w := range words {
		if _, ok := egyptianEducationTerms[w]; ok {
			eduWords++
		}
	}
	wordCount := len(words)
	if wordCount < 1 {
		wordCount = 1
	}
	educationScore := float64(eduWords) / float64(wordCount)

	return patternScore*0.7 + educationScore*0.3
}

// ShouldRespondInEgyptian decides whether replies use the Egyptian
// dialect, honoring an explicit preference over detection.
func ShouldRespondInEgyptian(detected Language, preference string) bool {
	if preference == string(ArabicEgyptian) {
		return true
	}
	if detected == ArabicEgyptian && (preference == "auto" || preference == string(ArabicEgyptian)) {
		return true
	}
	return false
}
