package utils

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QRTokenPrefix starts every public QR token
const QRTokenPrefix = "ML"

// QRTokenGenerator builds public QR tokens: ML-<ROLE>-<unix millis>-<12 hex chars>.
// The suffix comes from the random part of a v4 UUID.
type QRTokenGenerator struct {
	now    func() time.Time
	random func() uuid.UUID
}

// NewQRTokenGenerator creates a generator backed by the wall clock and crypto/rand
func NewQRTokenGenerator() *QRTokenGenerator {
	return &QRTokenGenerator{now: time.Now, random: uuid.New}
}

// Generate returns a fresh token for a record with the given role
func (g *QRTokenGenerator) Generate(role string) string {
	if role == "" {
		role = "user"
	}
	id := g.random()
	return fmt.Sprintf("%s-%s-%d-%s", QRTokenPrefix, strings.ToUpper(role), g.now().UnixMilli(), hex.EncodeToString(id[10:]))
}
