package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "memberpanel/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	parsers := map[string]func(string) (string, error){
		"application id": func(s string) (string, error) { v, err := ParseApplicationID(s); return v.String(), err },
		"member id":      func(s string) (string, error) { v, err := ParseMemberID(s); return v.String(), err },
		"role id":        func(s string) (string, error) { v, err := ParseRoleID(s); return v.String(), err },
		"province id":    func(s string) (string, error) { v, err := ParseProvinceID(s); return v.String(), err },
		"district id":    func(s string) (string, error) { v, err := ParseDistrictID(s); return v.String(), err },
		"user id":        func(s string) (string, error) { v, err := ParseUserID(s); return v.String(), err },
	}

	for kind, parse := range parsers {
		t.Run(kind, func(t *testing.T) {
			want := uuid.New()
			got, err := parse("  " + strings.ToUpper(want.String()) + " ")
			require.NoError(t, err)
			assert.Equal(t, want.String(), got)

			_, err = parse("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), kind+" is required")

			_, err = parse(uuid.Nil.String())
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "nil uuid must be refused")
		})
	}
}

func TestParseMemberID_MalformedInput(t *testing.T) {
	for name, raw := range map[string]string{
		"sql fragment":      "'; DELETE FROM accounts;--",
		"truncated uuid":    "550e8400-e29b-41d4-a716",
		"embedded nul":      "550e8400\x00-e29b-41d4-a716-446655440000",
		"zero width space":  "550e8400\u200B-e29b-41d4-a716-446655440000",
		"longer than limit": strings.Repeat("0", maxIDLength+1),
		"blank":             " \t ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMemberID(raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestGeoScope(t *testing.T) {
	province := ProvinceID(uuid.New())
	district := DistrictID(uuid.New())

	t.Run("key distinguishes absent parts", func(t *testing.T) {
		assert.Equal(t, "null:null", GeoScope{}.Key())
		assert.Equal(t, province.String()+":null", GeoScope{ProvinceID: &province}.Key())
		assert.Equal(t, "null:"+district.String(), GeoScope{DistrictID: &district}.Key())
		assert.NotEqual(t,
			GeoScope{ProvinceID: &province}.Key(),
			GeoScope{ProvinceID: &province, DistrictID: &district}.Key())
	})

	t.Run("empty only when both parts are absent", func(t *testing.T) {
		assert.True(t, GeoScope{}.IsEmpty())
		assert.False(t, GeoScope{DistrictID: &district}.IsEmpty())
		assert.False(t, GeoScope{ProvinceID: &province}.IsEmpty())
	})
}
