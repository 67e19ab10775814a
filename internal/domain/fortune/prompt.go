package fortune

import (
	"fmt"
	"strings"
)

const (
	// UnknownPlaceholder stands in for optional fields the querent left blank.
	UnknownPlaceholder = "unknown"
	// DefaultQuestion is divined when an I Ching request carries no question.
	DefaultQuestion = "recent fortune"

	defaultPersona = "You are a master of traditional Chinese destiny arts (BaZi, the I Ching and astrology). Your tone is refined, wise and humane."

	jsonContract = `You must return pure JSON only, without any Markdown code fences or extra text.
The JSON structure is:
{
  "title": "reading title",
  "summary": "core summary",
  "aspects": [
    { "label": "fortune dimension", "content": "analysis", "score": 85, "icon": "font-awesome-icon-name" }
  ],
  "advice": "the master's parting words",
  "luckyElements": { "color": "lucky color", "number": "lucky number", "direction": "direction of the benefactor" }
}`
)

// Prompt holds the two messages sent for a reading.
type Prompt struct {
	System string
	User   string
}

// PromptBuilder renders reading prompts under a configurable persona.
type PromptBuilder struct {
	Persona string
}

// BuildPrompt renders a reading prompt with the default persona.
func BuildPrompt(profile UserProfile, mode Mode, question string) Prompt {
	return PromptBuilder{}.Build(profile, mode, question)
}

// Build renders the system and user instructions for a reading.
// It never fails; profile validation happens before it is called.
func (pb PromptBuilder) Build(profile UserProfile, mode Mode, question string) Prompt {
	persona := strings.TrimSpace(pb.Persona)
	if persona == "" {
		persona = defaultPersona
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", taskDescription(mode, question))
	b.WriteString("Querent:\n")
	fmt.Fprintf(&b, "Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "Birth date: %s\n", profile.BirthDate)
	fmt.Fprintf(&b, "Birth time: %s\n", orUnknown(profile.BirthTime))
	fmt.Fprintf(&b, "Gender: %s\n", genderLabel(profile.Gender))
	fmt.Fprintf(&b, "Birthplace: %s\n", orUnknown(profile.Location))

	return Prompt{
		System: persona + "\n" + jsonContract,
		User:   b.String(),
	}
}

func taskDescription(mode Mode, question string) string {
	switch mode {
	case ModeBazi:
		return "In-depth BaZi chart analysis covering the four pillars, the gains and losses of the five elements, the ten gods pattern, and the major luck cycles and annual flows."
	case ModeDaily:
		return "Today's fortune forecast covering today's auspicious and inauspicious signs, what to do and avoid, and concrete scores for wealth, career and relationships."
	case ModeIChing:
		q := strings.TrimSpace(question)
		if q == "" {
			q = DefaultQuestion
		}
		return fmt.Sprintf("I Ching coin divination for the question: '%s'. Simulate casting the coins and give the primary hexagram, the changed hexagram and an interpretation of the line texts.", q)
	case ModeZodiac:
		return "Chinese zodiac annual analysis of the opportunities and challenges the native zodiac sign faces at present."
	case ModeRomance:
		return "In-depth marriage compatibility analysis: destined romance, traits of the true partner, timing of marriage, emotional harmony and potential obstacles."
	default:
		return "General destiny reading."
	}
}

func genderLabel(g Gender) string {
	switch g {
	case GenderMale:
		return "male (qian chart)"
	case GenderFemale:
		return "female (kun chart)"
	case GenderOther:
		return string(GenderOther)
	default:
		return orUnknown(string(g))
	}
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return UnknownPlaceholder
	}
	return value
}
