package fortune

import "strings"

// ModeInfo is the display copy for a mode.
type ModeInfo struct {
	Mode            Mode   `json:"mode"`
	Title           string `json:"title"`
	FormTitle       string `json:"formTitle"`
	Tagline         string `json:"tagline"`
	AcceptsQuestion bool   `json:"acceptsQuestion"`
}

var catalog = []ModeInfo{
	{Mode: ModeBazi, Title: "BaZi Destiny Chart", FormTitle: "Create your star profile", Tagline: "Decode your eight characters and reveal the balance of the five elements."},
	{Mode: ModeZodiac, Title: "Zodiac Year Flow", FormTitle: "Begin your destiny journey", Tagline: "See what the year holds for your native zodiac sign."},
	{Mode: ModeDaily, Title: "Today's Fortune", FormTitle: "Receive today's revelation", Tagline: "Seize the moment and see today's fortunes before they unfold."},
	{Mode: ModeIChing, Title: "I Ching Divination", FormTitle: "Consult the I Ching", Tagline: "Ask what weighs on your heart and let the hexagrams guide you.", AcceptsQuestion: true},
	{Mode: ModeRomance, Title: "Marriage Compatibility", FormTitle: "Open the scroll of romance", Tagline: "Trace the red thread of fate and find your destined partner."},
}

// Modes returns the display catalog in menu order.
func Modes() []ModeInfo {
	out := make([]ModeInfo, len(catalog))
	copy(out, catalog)
	return out
}

// FallbackGlyph is shown when the model returns an unusable icon name.
const FallbackGlyph = "star"

// Glyph turns a model supplied icon name into a safe icon identifier.
func Glyph(icon string) string {
	name := strings.ToLower(strings.TrimSpace(icon))
	name = strings.TrimPrefix(name, "fa-solid ")
	name = strings.TrimPrefix(name, "fa-")
	if name == "" || len(name) > 40 {
		return FallbackGlyph
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return FallbackGlyph
		}
	}
	return name
}
