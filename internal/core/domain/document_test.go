package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassifyPath tests path classification for scoring penalties
func TestClassifyPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want PathClass
	}{
		{"go source", "internal/core/services/search.go", PathClassProduction},
		{"go test", "internal/core/services/search_test.go", PathClassTest},
		{"tests dir", "pkg/tests/fixtures.py", PathClassTest},
		{"testdata", "internal/testdata/sample.md", PathClassTest},
		{"ts test", "src/app.test.ts", PathClassTest},
		{"vendor", "vendor/github.com/x/y/z.go", PathClassVendored},
		{"node modules", "web/node_modules/react/index.js", PathClassVendored},
		{"markdown", "docs/mcp-server.md", PathClassProduction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPath(tt.path))
		})
	}
}

// TestPathClass_Penalty tests scoring multipliers per class
func TestPathClass_Penalty(t *testing.T) {
	assert.Equal(t, 1.0, PathClassProduction.Penalty())
	assert.Equal(t, 0.5, PathClassTest.Penalty())
	assert.Equal(t, 0.25, PathClassVendored.Penalty())
}

// TestDocument_EffectiveImportance tests importance defaults and clamping
func TestDocument_EffectiveImportance(t *testing.T) {
	assert.Equal(t, 1.0, (&Document{}).EffectiveImportance())
	assert.Equal(t, 4.5, (&Document{Importance: 4.5}).EffectiveImportance())
	assert.Equal(t, MaxImportance, (&Document{Importance: 99}).EffectiveImportance())
}

// TestCollection_EffectiveBoost tests boost defaulting
func TestCollection_EffectiveBoost(t *testing.T) {
	assert.Equal(t, 1.0, (&Collection{}).EffectiveBoost())
	assert.Equal(t, 1.5, (&Collection{Boost: 1.5}).EffectiveBoost())
}

// TestCollection_Validate tests collection validation
func TestCollection_Validate(t *testing.T) {
	valid := Collection{Name: "docs", Locator: "/srv/docs"}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, (&Collection{Locator: "/x"}).Validate(), ErrInvalidInput)
	assert.ErrorIs(t, (&Collection{Name: "x"}).Validate(), ErrInvalidInput)
}

// TestSearchStrategy_Valid tests strategy validation
func TestSearchStrategy_Valid(t *testing.T) {
	assert.True(t, StrategyLexical.Valid())
	assert.True(t, StrategyVector.Valid())
	assert.True(t, StrategyHybrid.Valid())
	assert.False(t, SearchStrategy("").Valid())
	assert.False(t, SearchStrategy("fulltext").Valid())
}

// TestScoreBreakdown_Weighted tests the score product
func TestScoreBreakdown_Weighted(t *testing.T) {
	b := ScoreBreakdown{
		Base:            0.81,
		Importance:      4.5,
		CollectionBoost: 1.5,
		PathPenalty:     1.0,
		TermBoost:       10.0,
	}

	assert.InDelta(t, 54.675, b.Weighted(), 1e-9)
}
