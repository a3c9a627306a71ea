package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
)

func captureCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestVersionCommand(t *testing.T) {
	cmd, buf := captureCmd()
	versionCmd.Run(cmd, nil)

	assert.Contains(t, buf.String(), "sercha-engine version")
}

func TestOutputSearchTable(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		cmd, buf := captureCmd()

		err := outputSearchTable(cmd, nil)

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "No results found.")
	})

	t.Run("renders title, path and highlight", func(t *testing.T) {
		cmd, buf := captureCmd()
		results := []domain.SearchResult{{
			Document:       domain.Document{Path: "docs/guide.md", Title: "Guide"},
			CollectionName: "notes",
			Score:          87.5,
			Highlights:     []string{"a matching sentence"},
		}}

		err := outputSearchTable(cmd, results)

		assert.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "[1] Guide (87.50)")
		assert.Contains(t, out, "docs/guide.md")
		assert.Contains(t, out, "(notes)")
		assert.Contains(t, out, "a matching sentence")
	})

	t.Run("falls back to path without a title", func(t *testing.T) {
		cmd, buf := captureCmd()
		results := []domain.SearchResult{{
			Document: domain.Document{Path: "docs/guide.md"},
			Score:    10,
		}}

		err := outputSearchTable(cmd, results)

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "[1] docs/guide.md (10.00)")
	})
}

func TestPrintBreakdown(t *testing.T) {
	cmd, buf := captureCmd()
	printBreakdown(cmd, domain.ScoreBreakdown{
		Base:            0.81,
		Importance:      4.5,
		CollectionBoost: 1.5,
		PathPenalty:     1.0,
		TermBoost:       10.0,
		LexicalRank:     2,
		VectorRank:      1,
		Fusion:          0.032,
		Reranked:        true,
	})

	out := buf.String()
	assert.Contains(t, out, "base=0.8100")
	assert.Contains(t, out, "importance=4.50")
	assert.Contains(t, out, "terms=10.00")
	assert.Contains(t, out, "fusion=0.0320")
	assert.Contains(t, out, "lexical-rank=2")
	assert.Contains(t, out, "reranked by LLM")
}

func TestPrintIndexReport(t *testing.T) {
	cmd, buf := captureCmd()
	printIndexReport(cmd, &driving.IndexReport{
		Collection:      "notes",
		Documents:       3,
		DocumentsFailed: 1,
		Chunks:          9,
		Embedded:        4,
		Reused:          5,
		Warnings: []domain.IndexWarning{
			{DocumentPath: "docs/bad.md", ChunkPosition: 2, Message: "embed failed"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, `Indexed "notes": 3 documents, 9 chunks (4 embedded, 5 reused, 0 removed)`)
	assert.Contains(t, out, "1 documents failed")
	assert.Contains(t, out, "docs/bad.md: embed failed")
}

func TestParseConfigValue(t *testing.T) {
	assert.Equal(t, int64(42), parseConfigValue("42"))
	assert.Equal(t, 2.5, parseConfigValue("2.5"))
	assert.Equal(t, true, parseConfigValue("true"))
	assert.Equal(t, false, parseConfigValue("false"))
	assert.Equal(t, "ollama", parseConfigValue("ollama"))
	assert.Equal(t, int64(1), parseConfigValue("1"))
}
