package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/domain"
)

const validDefinition = `
id: ruby-lines
tag: ruby
typePrefix: lines
name: Ruby Lines
columns: 5
rows: 3
minMatch: 3
denominations: [100, 200, 500]
paylines:
  - [1, 1, 1, 1, 1]
  - [0, 0, 0, 0, 0]
symbols:
  - id: 0
    name: Wild
    isWild: true
    columnWeights: [1, 1, 1, 1, 1]
  - id: 3
    name: Seven
    wildSubstitutable: true
    columnWeights: [8, 8, 8, 8, 8]
    multipliers: [100, 40, 10]
freeSpin:
  enabled: true
  options:
    - {spins: 10, multiplier: 2}
    - {spins: 15, multiplier: 1}
  retriggerAdd: 5
gamble:
  enabled: true
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeDef(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "ruby.yaml", validDefinition)
	writeDef(t, dir, "README.md", "not a definition")

	c := New(testLogger())
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("load: %v", err)
	}

	def, err := c.Get("lines/ruby")
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if def.Name != "Ruby Lines" || def.Columns != 5 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if !def.FreeSpin.Enabled || len(def.FreeSpin.Options) != 2 {
		t.Fatalf("free spin config not parsed: %+v", def.FreeSpin)
	}
	if def.FreeSpin.Options[0].Spins != 10 || def.FreeSpin.Options[0].Multiplier != 2 {
		t.Fatalf("option not parsed: %+v", def.FreeSpin.Options[0])
	}

	if _, err := c.ByID("ruby-lines"); err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if _, err := c.Get("lines/emerald"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame, got %v", err)
	}
}

func TestLoadDirRejectsInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	// payline shorter than the column count
	writeDef(t, dir, "broken.yaml", `
id: broken
typePrefix: lines
columns: 5
rows: 3
minMatch: 3
denominations: [100]
paylines:
  - [1, 1, 1]
symbols:
  - id: 3
    name: Seven
    multipliers: [10]
`)

	c := New(testLogger())
	if err := c.LoadDir(dir); err == nil {
		t.Fatal("expected load failure for malformed payline")
	}
}

func TestLoadDirKeepsPreviousOnFailure(t *testing.T) {
	good := t.TempDir()
	writeDef(t, good, "ruby.yaml", validDefinition)

	c := New(testLogger())
	if err := c.LoadDir(good); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	empty := t.TempDir()
	if err := c.LoadDir(empty); err == nil {
		t.Fatal("expected failure on empty dir")
	}
	if _, err := c.Get("lines/ruby"); err != nil {
		t.Fatalf("previous catalog must survive a failed reload: %v", err)
	}
}

func TestRegister(t *testing.T) {
	c := New(testLogger())
	def := &domain.GameDefinition{
		ID:            "inline",
		Tag:           "inline",
		TypePrefix:    "lines",
		Columns:       3,
		Rows:          3,
		MinMatch:      3,
		Denominations: []int64{100},
		Paylines:      [][]int{{1, 1, 1}},
		Symbols: []domain.Symbol{
			{ID: 1, Name: "Bar", Multipliers: []int64{10}},
		},
	}
	if err := c.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := c.List(); len(got) != 1 || got[0].ID != "inline" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func loadedCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	writeDef(t, dir, "ruby.yaml", validDefinition)
	c := New(testLogger())
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestReconfigureSwapsOneGame(t *testing.T) {
	c := loadedCatalog(t)
	before, err := c.ByID("ruby-lines")
	if err != nil {
		t.Fatalf("get before: %v", err)
	}

	updated := strings.Replace(validDefinition,
		"multipliers: [100, 40, 10]", "multipliers: [200, 80, 20]", 1)
	def, err := c.Reconfigure("ruby-lines", []byte(updated))
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if def.Symbols[1].Multipliers[0] != 200 {
		t.Fatalf("new table not applied: %+v", def.Symbols[1].Multipliers)
	}

	after, err := c.ByID("ruby-lines")
	if err != nil {
		t.Fatalf("get after: %v", err)
	}
	if after.Symbols[1].Multipliers[0] != 200 {
		t.Errorf("catalog still serves the old table: %+v", after.Symbols[1].Multipliers)
	}
	// the old definition is replaced, not mutated in place
	if before.Symbols[1].Multipliers[0] != 100 {
		t.Errorf("previous definition was mutated: %+v", before.Symbols[1].Multipliers)
	}
	if _, err := c.Get("lines/ruby"); err != nil {
		t.Errorf("registry key lookup broken after swap: %v", err)
	}
}

func TestReconfigureMovesRegistryKey(t *testing.T) {
	c := loadedCatalog(t)

	updated := strings.Replace(validDefinition, "tag: ruby", "tag: garnet", 1)
	if _, err := c.Reconfigure("ruby-lines", []byte(updated)); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if _, err := c.Get("lines/garnet"); err != nil {
		t.Fatalf("new key missing: %v", err)
	}
	if _, err := c.Get("lines/ruby"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("old key must be dropped, got %v", err)
	}
}

func TestReconfigureRejectsMismatchedID(t *testing.T) {
	c := loadedCatalog(t)

	renamed := strings.Replace(validDefinition, "id: ruby-lines", "id: emerald-lines", 1)
	if _, err := c.Reconfigure("ruby-lines", []byte(renamed)); err == nil {
		t.Fatal("expected rejection for mismatched id")
	}
	if _, err := c.Reconfigure("emerald-lines", []byte(renamed)); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame for unlisted game, got %v", err)
	}
}

func TestReconfigureKeepsPreviousOnInvalidDoc(t *testing.T) {
	c := loadedCatalog(t)

	broken := strings.Replace(validDefinition,
		"  - [1, 1, 1, 1, 1]", "  - [1, 1, 1]", 1)
	if _, err := c.Reconfigure("ruby-lines", []byte(broken)); err == nil {
		t.Fatal("expected rejection for malformed payline")
	}

	def, err := c.ByID("ruby-lines")
	if err != nil {
		t.Fatalf("previous definition must survive: %v", err)
	}
	if def.Symbols[1].Multipliers[0] != 100 {
		t.Errorf("previous table was disturbed: %+v", def.Symbols[1].Multipliers)
	}
}
