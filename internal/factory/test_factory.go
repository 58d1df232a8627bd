package factory

import (
	"time"

	"github.com/mcoot/pirateclash/internal/catalog"
	"github.com/mcoot/pirateclash/internal/dependencies/mocks"
	"github.com/mcoot/pirateclash/internal/services/auth"
	"github.com/mcoot/pirateclash/internal/services/battle"
	"github.com/mcoot/pirateclash/internal/storage/memory"
	"github.com/mcoot/pirateclash/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and the embedded catalog
func NewTestApp() *TestApp {
	cat, err := catalog.Default()
	if err != nil {
		panic(err)
	}
	return NewTestAppWithCatalog(cat)
}

// NewTestAppWithCatalog creates a test App using the given catalog
func NewTestAppWithCatalog(cat *catalog.Catalog) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(store, cat, mockClock, mockRandom,
		auth.DefaultConfig(), battle.DefaultConfig(), testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// AdvanceAITurn moves the clock past the AI turn delay so a pending AI turn fires
func (t *TestApp) AdvanceAITurn() {
	t.MockClock.Advance(battle.DefaultConfig().AITurnDelay)
}
