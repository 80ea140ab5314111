package logx

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitDebugLevel(t *testing.T) {
	Init(Config{Debug: true})
	if log.Logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.Logger.GetLevel())
	}
}

func TestInitDefaultsToInfo(t *testing.T) {
	Init()
	if log.Logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", log.Logger.GetLevel())
	}
}
