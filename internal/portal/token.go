// Package portal exposes a read-only self-service view for clients and a
// read-only dashboard for business owners, both behind derived share tokens.
package portal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DeriveToken produces the stable share token for a client within a business.
// Regenerating a link for the same pair always yields the same token, so
// previously shared links keep working.
func DeriveToken(clientID, businessID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-portal", clientID, businessID)))
	return hex.EncodeToString(sum[:])[:16]
}

// VerifyAccessCode checks the code against the last four digits of the
// client's tax ID, ignoring separators. IDs with fewer than four digits
// always fail.
func VerifyAccessCode(taxID, code string) bool {
	var digits strings.Builder
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 4 || len(code) != 4 {
		return false
	}
	return d[len(d)-4:] == code
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
