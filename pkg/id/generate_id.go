package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewRef returns a payment reference like "DISB-1736123456-a1b2c3d4".
// Used for gateway transaction references where a readable prefix helps
// reconciliation against provider statements.
func NewRef(prefix string) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(prefix), time.Now().Unix(), hex.EncodeToString(b))
}
