package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNicknamePattern(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"ab", true},
		{"Tomato Soup", true},
		{"a1 b2 c3", true},
		{"42", true},
		{"a", false},
		{"1", false},
		{"", false},
		{" ab", false},
		{"ab ", false},
		{"a!b", false},
		{"héllo", false},
		{"tab\tname", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Nickname(tt.input)
			if tt.ok {
				require.Nil(t, err)
				assert.Equal(t, tt.input, got)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, "nickname", err.Field)
			}
		})
	}
}

func TestTitleUsesSamePattern(t *testing.T) {
	_, err := Title("Tomato Soup")
	assert.Nil(t, err)

	_, err = Title("a")
	require.NotNil(t, err)
	assert.Equal(t, "title", err.Field)
}

func TestRecipeType(t *testing.T) {
	got, err := RecipeType("")
	require.Nil(t, err)
	assert.Equal(t, "other", got)

	for _, typ := range RecipeTypes {
		got, err := RecipeType(typ)
		require.Nil(t, err)
		assert.Equal(t, typ, got)
	}

	_, ferr := RecipeType("snack")
	require.NotNil(t, ferr)
	assert.Equal(t, "type", ferr.Field)
}

func TestSteps(t *testing.T) {
	got, err := Steps([]string{"chop", "boil"})
	require.Nil(t, err)
	assert.Equal(t, []string{"chop", "boil"}, got)

	// a gap ends the sequence; entries past it are dropped, not an error
	got, err = Steps([]string{"chop", "boil", "", "serve"})
	require.Nil(t, err)
	assert.Equal(t, []string{"chop", "boil"}, got)

	// too few before the gap
	_, err = Steps([]string{"chop", "", "boil", "serve"})
	require.NotNil(t, err)

	_, err = Steps([]string{"chop"})
	require.NotNil(t, err)

	_, err = Steps(nil)
	require.NotNil(t, err)
}

func TestStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusLocked} {
		got, err := Status(s)
		require.Nil(t, err)
		assert.Equal(t, s, got)
	}

	_, err := Status("banned")
	assert.NotNil(t, err)
}

func TestErrorsAccumulate(t *testing.T) {
	var errs Errors
	_, ferr := Nickname("a")
	errs = errs.Add(ferr)
	_, ferr = Status("nope")
	errs = errs.Add(ferr)
	_, ferr = RecipeType("other")
	errs = errs.Add(ferr) // nil, must not grow the list

	require.Len(t, errs, 2)
	assert.Error(t, errs.Or())
	assert.Contains(t, errs.Error(), "nickname")
	assert.Contains(t, errs.Error(), "status")

	assert.NoError(t, Errors{}.Or())
}
