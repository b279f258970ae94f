// Package visitors derives anonymous visitor identifiers for click analytics.
package visitors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// BuildVisitorHash identifies a visitor of one owner's links for a single UTC
// day. The IP address is only hashed, never stored, and the hash rotates at
// midnight UTC so visitors cannot be followed across days.
func BuildVisitorHash(ownerID, ipAddress, userAgent, salt string, at time.Time) string {
	day := at.UTC().Format("2006-01-02")
	data := fmt.Sprintf("%s-%s.%s.%s.%s", day, salt, ownerID, ipAddress, userAgent)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
