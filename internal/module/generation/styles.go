package generation

import "fmt"

// Style names a supported tattoo visual style.
type Style string

const (
	StyleNeoTraditional Style = "Neo-Traditional"
	StyleOldSchool      Style = "Old School"
	StyleBlackwork      Style = "Blackwork"
	StyleMinimalist     Style = "Minimalist"
	StyleRealism        Style = "Realism"
	StyleWatercolor     Style = "Watercolor"
	StyleGeometric      Style = "Geometric"
	StyleTribal         Style = "Tribal"
	StyleJapanese       Style = "Japanese"
)

// StyleNone is the absence of a style: the prompt goes upstream as-is.
const StyleNone Style = ""

// DefaultStyle is the style the generation form preselects. The server never
// substitutes it; clients send it explicitly.
const DefaultStyle = StyleNeoTraditional

// Styles lists every supported style in display order.
var Styles = []Style{
	StyleNeoTraditional,
	StyleOldSchool,
	StyleBlackwork,
	StyleMinimalist,
	StyleRealism,
	StyleWatercolor,
	StyleGeometric,
	StyleTribal,
	StyleJapanese,
}

var styleSet = func() map[Style]struct{} {
	m := make(map[Style]struct{}, len(Styles))
	for _, s := range Styles {
		m[s] = struct{}{}
	}
	return m
}()

// ParseStyle validates a style name. An empty name is valid and resolves to
// StyleNone.
func ParseStyle(name string) (Style, error) {
	if name == "" {
		return StyleNone, nil
	}
	s := Style(name)
	if _, ok := styleSet[s]; !ok {
		return "", fmt.Errorf("unsupported style %q", name)
	}
	return s, nil
}

const promptTemplate = "Generate a tattoo design in the %s style. " +
	"This design is intended for a tattoo studio to use for a custom tattoo. " +
	"With the following description: %s. " +
	"Please generate only the tattoo design, without any additional content."

// StyledPrompt wraps the user's free-text description in the fixed
// instruction template for the given style.
func StyledPrompt(style Style, description string) string {
	return fmt.Sprintf(promptTemplate, style, description)
}
