package fortune

import (
	"strings"
	"time"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ValidateProfile applies the form boundary rules and returns the cleaned profile.
// An empty gender defaults to male, as the form does.
func ValidateProfile(p UserProfile) (UserProfile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.BirthDate = strings.TrimSpace(p.BirthDate)
	p.BirthTime = strings.TrimSpace(p.BirthTime)
	p.Location = strings.TrimSpace(p.Location)

	if p.Name == "" || p.BirthDate == "" {
		return UserProfile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "please fill in your name and birth date", nil)
	}
	if _, err := time.Parse(dateLayout, p.BirthDate); err != nil {
		return UserProfile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "birthDate must be formatted as YYYY-MM-DD", err)
	}
	if p.BirthTime != "" {
		if _, err := time.Parse(timeLayout, p.BirthTime); err != nil {
			return UserProfile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "birthTime must be formatted as HH:MM", err)
		}
	}
	switch Gender(strings.ToLower(string(p.Gender))) {
	case "":
		p.Gender = GenderMale
	case GenderMale, GenderFemale, GenderOther:
		p.Gender = Gender(strings.ToLower(string(p.Gender)))
	default:
		return UserProfile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "gender must be one of male, female, other", nil)
	}
	return p, nil
}
