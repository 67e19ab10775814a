package fortune

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		wantErr bool
		want    UserProfile
	}{
		{
			name:    "trims and defaults gender",
			profile: UserProfile{Name: "  Wei ", BirthDate: "1990-01-02 "},
			want:    UserProfile{Name: "Wei", BirthDate: "1990-01-02", Gender: GenderMale},
		},
		{
			name:    "normalizes gender case",
			profile: UserProfile{Name: "Wei", BirthDate: "1990-01-02", BirthTime: "23:10", Gender: "Other", Location: " Xi'an "},
			want:    UserProfile{Name: "Wei", BirthDate: "1990-01-02", BirthTime: "23:10", Gender: GenderOther, Location: "Xi'an"},
		},
		{name: "empty name", profile: UserProfile{BirthDate: "1990-01-02"}, wantErr: true},
		{name: "blank name", profile: UserProfile{Name: "  ", BirthDate: "1990-01-02"}, wantErr: true},
		{name: "empty birth date", profile: UserProfile{Name: "Wei"}, wantErr: true},
		{name: "bad birth date", profile: UserProfile{Name: "Wei", BirthDate: "1990/01/02"}, wantErr: true},
		{name: "bad birth time", profile: UserProfile{Name: "Wei", BirthDate: "1990-01-02", BirthTime: "7pm"}, wantErr: true},
		{name: "bad gender", profile: UserProfile{Name: "Wei", BirthDate: "1990-01-02", Gender: "dragon"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateProfile(tc.profile)
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" IChing ")
	require.NoError(t, err)
	require.Equal(t, ModeIChing, mode)

	_, err = ParseMode("tarot")
	require.Error(t, err)
	require.False(t, Mode("").Valid())
}
