package conversation

import (
	"fmt"
	"sort"
	"strings"
)

// Language holds the user-facing strings of one interface language.
type Language struct {
	Code        string
	Name        string
	Welcome     string
	Placeholder string
	Suggestions []string
}

// DefaultLanguage is used when none is configured.
const DefaultLanguage = "en"

var languages = map[string]Language{
	"en": {
		Code: "en",
		Name: "English",
		Welcome: "Hello! I'm the FIEK AI Chatbot. I can help you with questions " +
			"about the Faculty of Electrical and Computer Engineering. How can I assist you today?",
		Placeholder: "Ask me anything about FIEK...",
		Suggestions: []string{
			"What study programs does FIEK offer?",
			"When does the exam period start?",
			"How do I apply for a master's degree?",
			"Where can I find the academic calendar?",
		},
	},
	"sq": {
		Code: "sq",
		Name: "Shqip",
		Welcome: "Përshëndetje! Unë jam FIEK AI Chatbot. Mund t'ju ndihmoj me pyetje " +
			"rreth Fakultetit të Inxhinierisë Elektrike dhe Kompjuterike. Si mund t'ju ndihmoj sot?",
		Placeholder: "Më pyetni çdo gjë për FIEK...",
		Suggestions: []string{
			"Cilat programe studimi ofron FIEK?",
			"Kur fillon afati i provimeve?",
			"Si të aplikoj për studime master?",
			"Ku mund ta gjej kalendarin akademik?",
		},
	},
}

// LookupLanguage returns the language for code, case-insensitively.
func LookupLanguage(code string) (Language, error) {
	lang, ok := languages[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Language{}, fmt.Errorf("unknown language %q (available: %s)", code, strings.Join(LanguageCodes(), ", "))
	}
	return lang, nil
}

// LanguageCodes returns the supported language codes, sorted.
func LanguageCodes() []string {
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
