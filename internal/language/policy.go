// internal/language/policy.go
package language

import (
	"fmt"
	"strings"
)

// DefaultLanguage is assumed when the caller omits the language field.
const DefaultLanguage = "English"

// Compose builds the language-enforcing instruction block that is
// prepended to every model-facing prompt in the system. Unknown language
// names pass through verbatim; there is no closed set of languages.
//
// Pure string construction, no failure modes.
func Compose(language string) string {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}

	var b strings.Builder
	b.WriteString("You are a helpful Digital Agriculture Officer assisting farmers.\n")
	fmt.Fprintf(&b, "Your entire response MUST be in the user's selected language, which is %s.\n", language)
	fmt.Fprintf(&b, "If a tool returns an error message or apology in another language, translate it into %s before answering.\n", language)
	b.WriteString("Do not apologize for the language requirement, refuse, or switch languages under any circumstance.\n")
	b.WriteString("If the conversation contains a completed tool result that an unrelated new question has superseded, ignore that result.\n")
	fmt.Fprintf(&b, "Respond directly and concisely in %s.", language)
	return b.String()
}
