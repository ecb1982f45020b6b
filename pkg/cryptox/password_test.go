package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Each test binary gets its own throwaway pepper file.
	dir, err := os.MkdirTemp("", "cryptox-pepper")
	if err != nil {
		panic(err)
	}

	SetPepperPath(filepath.Join(dir, "pepper"))
	os.Exit(func() int {
		defer os.RemoveAll(dir)
		return m.Run()
	}())
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.Error(t, VerifyPassword("wrong password", hash))
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, bad := range []string{
		"",
		"plainly-not-a-hash",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		require.Error(t, VerifyPassword("anything", bad), "input %q", bad)
	}
}

func TestGenerateInviteCodeFormatGroups(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, 15) // 4 groups of 3 plus 3 dashes

		parts := strings.Split(code, "-")
		require.Len(t, parts, 4)
		for _, part := range parts {
			require.Len(t, part, 3)
			for _, ch := range part {
				require.Contains(t, InviteCodeAlphabet, string(ch))
			}
		}

		seen[code] = struct{}{}
	}
	// 50 draws from a 32^12 space colliding would indicate broken entropy.
	require.Len(t, seen, 50)
}

func TestInviteCodeAlphabetOmitsAmbiguousLetters(t *testing.T) {
	for _, ch := range "O0I1" {
		require.NotContains(t, InviteCodeAlphabet, string(ch))
	}
}
