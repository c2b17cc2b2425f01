// internal/diagnosis/composer.go
package diagnosis

import (
	"fmt"
	"strings"

	"agri-officer/internal/language"
)

// Headers are the localized Markdown section titles of an advisory.
type Headers struct {
	Identification string
	Actions        string
	Treatment      string
	Prevention     string
}

// headersByLanguage holds the languages with curated header translations.
// Any other language falls back to the English headers; the advisory body
// is still written in the requested language by the model.
var headersByLanguage = map[string]Headers{
	"English": {
		Identification: "Identification",
		Actions:        "Immediate Actions",
		Treatment:      "Treatment Plan",
		Prevention:     "Prevention Tips",
	},
	"Kannada": {
		Identification: "ಗುರುತಿಸುವಿಕೆ",
		Actions:        "ತಕ್ಷಣದ ಕ್ರಮಗಳು",
		Treatment:      "ಚಿಕಿತ್ಸಾ ಯೋಜನೆ",
		Prevention:     "ತಡೆಗಟ್ಟುವಿಕೆ ಸಲಹೆಗಳು",
	},
	"Malayalam": {
		Identification: "തിരിച്ചറിയൽ",
		Actions:        "ഉടനടി സ്വീകരിക്കേണ്ട നടപടികൾ",
		Treatment:      "ചികിത്സാ പദ്ധതി",
		Prevention:     "പ്രതിരോധത്തിനുള്ള നുറുങ്ങുകൾ",
	},
}

// HeadersFor returns the advisory headers for a language, falling back to
// English for languages without a curated set.
func HeadersFor(lang string) Headers {
	if h, ok := headersByLanguage[strings.TrimSpace(lang)]; ok {
		return h
	}
	return headersByLanguage["English"]
}

// ComposePrompt builds the single-turn advisory prompt for a classified
// image. The model decides whether the label is agricultural; non-crop
// labels get a friendly note instead of the structured advisory.
func ComposePrompt(label string, confidence float64, lang string) string {
	if strings.TrimSpace(lang) == "" {
		lang = language.DefaultLanguage
	}
	h := HeadersFor(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert Digital Agriculture Officer. An image has been analyzed, and the object is identified as: %q with a confidence of %.0f%%.\n\n", label, confidence*100)
	fmt.Fprintf(&b, "Based on this identification, provide a simple and helpful advisory to a farmer in **%s**.\n\n", lang)
	b.WriteString("Follow these rules precisely:\n\n")
	fmt.Fprintf(&b, "1. Is %q a plant, fruit, vegetable, or a known pest?\n", label)
	b.WriteString("   - If YES: write a helpful agricultural advisory using the following Markdown structure with exactly these headers:\n")
	fmt.Fprintf(&b, "     - ## %s\n", h.Identification)
	fmt.Fprintf(&b, "     - ## %s\n", h.Actions)
	fmt.Fprintf(&b, "     - ## %s\n", h.Treatment)
	fmt.Fprintf(&b, "     - ## %s\n", h.Prevention)
	fmt.Fprintf(&b, "   - If NO (for example a car, a tool, an animal): simply state in a friendly tone what you see and mention that it does not appear to be a crop issue. Do not use the headers. For example: \"The image appears to show a %s. This does not seem to be a crop-related problem.\"\n\n", label)
	fmt.Fprintf(&b, "2. LANGUAGE: your entire response must be in **%s**. Do not use any other language.\n", lang)
	b.WriteString("3. TONE: be friendly, simple, and direct.")
	return b.String()
}
