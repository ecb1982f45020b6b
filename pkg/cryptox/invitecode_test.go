package cryptox

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}$`)

	for range 50 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestInviteCodeAlphabetOmitsAmbiguousCharacters(t *testing.T) {
	for _, c := range "O0I1" {
		assert.NotContains(t, InviteCodeAlphabet, string(c))
	}
	assert.Len(t, InviteCodeAlphabet, 32)
}

func TestGenerateInviteCodeNotConstant(t *testing.T) {
	seen := map[string]bool{}
	for range 20 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 32^12 codes; 20 draws colliding would mean a broken generator
	assert.Greater(t, len(seen), 1)

	for code := range seen {
		assert.Equal(t, 3, strings.Count(code, "-"))
	}
}
