package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// InviteCodeAlphabet deliberately omits O/0 and I/1 so codes survive being
// read over the phone or retyped from paper.
const InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	inviteCodeGroups    = 4
	inviteCodeGroupSize = 3
)

// GenerateInviteCode returns a human-legible invitation code in the form
// ABC-DEF-GHJ-KLM: four groups of three characters drawn from the
// unambiguous alphabet, giving 32^12 possible codes.
func GenerateInviteCode() (string, error) {
	max := big.NewInt(int64(len(InviteCodeAlphabet)))

	groups := make([]string, 0, inviteCodeGroups)
	var sb strings.Builder
	for range inviteCodeGroups {
		sb.Reset()
		for range inviteCodeGroupSize {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("failed to generate invite code: %w", err)
			}
			sb.WriteByte(InviteCodeAlphabet[n.Int64()])
		}
		groups = append(groups, sb.String())
	}

	return strings.Join(groups, "-"), nil
}
