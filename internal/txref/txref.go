// Package txref generates transaction references for the payment ledger.
package txref

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix marks references issued by this service.
const DefaultPrefix = "EE-"

// Generator produces references of the form <prefix><unix-millis>-<8 random
// hex chars>. The timestamp keeps references human-traceable; the random
// tail comes from a v4 UUID. The ledger's primary-key constraint remains the
// final authority on uniqueness, so callers retry on a duplicate insert.
type Generator struct {
	prefix string
}

// New constructs a Generator. An empty prefix falls back to DefaultPrefix.
func New(prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{prefix: prefix}
}

// Generate returns a fresh transaction reference.
func (g *Generator) Generate() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s", g.prefix, time.Now().UnixMilli(), random)
}
