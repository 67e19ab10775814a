package fortune

import (
	"fmt"
	"strings"
)

// Gender is the querent's declared gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Mode selects the reading template.
type Mode string

const (
	ModeBazi    Mode = "bazi"
	ModeZodiac  Mode = "zodiac"
	ModeDaily   Mode = "daily"
	ModeIChing  Mode = "iching"
	ModeRomance Mode = "romance"
)

// AllModes lists every mode in display order.
var AllModes = []Mode{ModeBazi, ModeZodiac, ModeDaily, ModeIChing, ModeRomance}

// ParseMode accepts the wire value of a mode, case-insensitively.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode.Valid() {
		return mode, nil
	}
	return "", fmt.Errorf("unknown fortune mode %q", raw)
}

// Valid reports whether m is one of the five supported modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeBazi, ModeZodiac, ModeDaily, ModeIChing, ModeRomance:
		return true
	default:
		return false
	}
}

// UserProfile is the birth data collected by the form.
type UserProfile struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	BirthTime string `json:"birthTime,omitempty"`
	Gender    Gender `json:"gender"`
	Location  string `json:"location,omitempty"`
}

// Request is a single reading request.
type Request struct {
	Profile  UserProfile `json:"profile"`
	Mode     Mode        `json:"mode"`
	Question string      `json:"question,omitempty"`
}

// ReadingResult is the structured output the model must return.
type ReadingResult struct {
	Title         string        `json:"title"`
	Summary       string        `json:"summary"`
	Aspects       []Aspect      `json:"aspects"`
	Advice        string        `json:"advice"`
	LuckyElements LuckyElements `json:"luckyElements"`
}

// Aspect is one scored facet of a reading.
type Aspect struct {
	Label   string `json:"label"`
	Content string `json:"content"`
	Score   int    `json:"score"`
	Icon    string `json:"icon"`
}

// LuckyElements are the charms attached to a reading.
type LuckyElements struct {
	Color     string `json:"color"`
	Number    string `json:"number"`
	Direction string `json:"direction"`
}

// Config wires runtime settings for the fortune domain.
type Config struct {
	Model       string
	Persona     string
	Temperature float32
	MaxTokens   int
}
