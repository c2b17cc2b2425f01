// internal/diagnosis/composer_test.go
package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersFor_KnownLanguages(t *testing.T) {
	en := HeadersFor("English")
	assert.Equal(t, "Identification", en.Identification)
	assert.Equal(t, "Immediate Actions", en.Actions)
	assert.Equal(t, "Treatment Plan", en.Treatment)
	assert.Equal(t, "Prevention Tips", en.Prevention)

	kn := HeadersFor("Kannada")
	assert.Equal(t, "ಗುರುತಿಸುವಿಕೆ", kn.Identification)
	assert.Equal(t, "ತಕ್ಷಣದ ಕ್ರಮಗಳು", kn.Actions)
	assert.Equal(t, "ಚಿಕಿತ್ಸಾ ಯೋಜನೆ", kn.Treatment)
	assert.Equal(t, "ತಡೆಗಟ್ಟುವಿಕೆ ಸಲಹೆಗಳು", kn.Prevention)

	ml := HeadersFor("Malayalam")
	assert.Equal(t, "തിരിച്ചറിയൽ", ml.Identification)
	assert.Equal(t, "ഉടനടി സ്വീകരിക്കേണ്ട നടപടികൾ", ml.Actions)
	assert.Equal(t, "ചികിത്സാ പദ്ധതി", ml.Treatment)
	assert.Equal(t, "പ്രതിരോധത്തിനുള്ള നുറുങ്ങുകൾ", ml.Prevention)
}

func TestHeadersFor_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, HeadersFor("English"), HeadersFor("Hindi"))
	assert.Equal(t, HeadersFor("English"), HeadersFor(""))
}

func TestComposePrompt_StructuredAdvisory(t *testing.T) {
	prompt := ComposePrompt("Tomato Late Blight", 0.91, "Kannada")

	assert.Contains(t, prompt, `identified as: "Tomato Late Blight" with a confidence of 91%`)
	assert.Contains(t, prompt, "advisory to a farmer in **Kannada**")
	assert.Contains(t, prompt, "## ಗುರುತಿಸುವಿಕೆ")
	assert.Contains(t, prompt, "## ತಕ್ಷಣದ ಕ್ರಮಗಳು")
	assert.Contains(t, prompt, "## ಚಿಕಿತ್ಸಾ ಯೋಜನೆ")
	assert.Contains(t, prompt, "## ತಡೆಗಟ್ಟುವಿಕೆ ಸಲಹೆಗಳು")
	assert.Contains(t, prompt, "your entire response must be in **Kannada**")
}

func TestComposePrompt_UnknownLanguageKeepsBodyLanguage(t *testing.T) {
	prompt := ComposePrompt("Mango", 0.5, "Tamil")

	// English headers, but the body language stays as requested.
	assert.Contains(t, prompt, "## Identification")
	assert.Contains(t, prompt, "advisory to a farmer in **Tamil**")
	assert.Contains(t, prompt, "must be in **Tamil**")
}

func TestComposePrompt_EmptyLanguageDefaultsToEnglish(t *testing.T) {
	prompt := ComposePrompt("Mango", 0.5, "")
	assert.Contains(t, prompt, "advisory to a farmer in **English**")
}

func TestComposePrompt_SentinelLabelStillComposes(t *testing.T) {
	prompt := ComposePrompt(SentinelLabel, 0, "English")
	assert.Contains(t, prompt, SentinelLabel)
}
