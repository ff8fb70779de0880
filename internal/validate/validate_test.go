package validate

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"Ali", nil},
		{"", ErrEmptyName},
		{"   \t", ErrEmptyName},
		{strings.Repeat("a", 20), nil},
		{strings.Repeat("a", 21), ErrNameTooLong},
		{"Ali<script>", ErrInvalidChars},
		{"a>b", ErrInvalidChars},
		{"{x}", ErrInvalidChars},
		{"a}", ErrInvalidChars},
		{"عبد الله", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.ErrorIs(t, Name(tt.in), tt.want)
			if tt.want == nil {
				assert.NoError(t, Name(tt.in))
			}
		})
	}
}

func TestName_LongStringsAlwaysTooLong(t *testing.T) {
	for n := 21; n < 80; n += 7 {
		s := strings.Repeat("x", n)
		assert.ErrorIs(t, Name(s), ErrNameTooLong, "len %d", n)
	}
}

func TestName_ForbiddenCharsAnywhere(t *testing.T) {
	for _, c := range []string{"<", ">", "{", "}"} {
		for _, s := range []string{c + "ab", "a" + c + "b", "ab" + c} {
			assert.ErrorIs(t, Name(s), ErrInvalidChars, s)
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"5", 5, nil},
		{"0005", 5, nil},
		{"9999", 9999, nil},
		{"", 0, ErrEmptyCount},
		{"  ", 0, ErrEmptyCount},
		{"abc", 0, ErrNotNumeric},
		{"-1", 0, ErrNotNumeric},
		{"1.5", 0, ErrNotNumeric},
		{" 5", 0, ErrNotNumeric},
		{"0", 0, ErrCountNotPositive},
		{"000", 0, ErrCountNotPositive},
		{"10000", 0, ErrCountTooLarge},
		{"99999999999999999999999", 0, ErrCountTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Count(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCount_AcceptsWholeRange(t *testing.T) {
	for n := 1; n <= MaxCount; n++ {
		got, err := Count(strconv.Itoa(n))
		if err != nil || got != n {
			t.Fatalf("Count(%d) = %d, %v", n, got, err)
		}
	}
}

func TestEntry_ReportsAllFailures(t *testing.T) {
	_, err := Entry("", "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyName))
	assert.True(t, errors.Is(err, ErrNotNumeric))
	assert.Equal(t, []string{"Name is required", "Count must be a number"}, Messages(err))

	n, err := Entry("Ali", "5")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMessages_SingleError(t *testing.T) {
	assert.Equal(t, []string{"Count must be positive"}, Messages(ErrCountNotPositive))
	assert.Nil(t, Messages(nil))
}
