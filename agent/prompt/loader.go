package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// System returns the behavioral policy text seeded as the first turn of
// every conversation. Safe to call concurrently; the embed is compile-time.
func System() string {
	return strings.TrimSpace(systemRaw)
}
