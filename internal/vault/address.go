package vault

import (
	"fmt"
	"strings"
)

// Address identifies a fund, bot, recipient, treasury or custody account.
// Canonical form is lowercase "0x" followed by 40 hex digits.
type Address string

// ZeroAddress is the null identity. It is rejected everywhere a real
// identity is required.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress normalizes and validates an address string. Checksum casing is
// not verified; input is lowercased.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
		}
	}
	return Address(s), nil
}

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string { return string(a) }
