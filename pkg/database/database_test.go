package database

import (
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	if err != nil {
		t.Fatalf("read embedded schema: %v", err)
	}
	for _, table := range []string{"game_state", "intents", "settings"} {
		if !strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema does not create %s", table)
		}
	}
}
