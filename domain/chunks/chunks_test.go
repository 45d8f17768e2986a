package chunks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emergent-company/lims-pipeline/domain/chunking"
)

func TestFloatsToVectorLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected string
	}{
		{name: "empty slice", input: []float32{}, expected: "[]"},
		{name: "nil slice", input: nil, expected: "[]"},
		{name: "single element", input: []float32{1.5}, expected: "[1.5]"},
		{name: "multiple elements", input: []float32{1.0, 2.5, 3.75}, expected: "[1,2.5,3.75]"},
		{name: "negative values", input: []float32{-1.5, 0, 1.5}, expected: "[-1.5,0,1.5]"},
		{name: "very small values", input: []float32{0.001, 0.0001}, expected: "[0.001,0.0001]"},
		{name: "large values", input: []float32{1000000, 2000000.5}, expected: "[1e+06,2.0000005e+06]"},
		{name: "mixed precision", input: []float32{0.123456789, 1.0, -0.5}, expected: "[0.12345679,1,-0.5]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, floatsToVectorLiteral(tt.input))
		})
	}
}

func TestFromChunk(t *testing.T) {
	c := chunking.Chunk{
		Content:           "Act\nSection 1\n\nText.",
		ChunkIndex:        1,
		TotalChunks:       3,
		ResourceKey:       "act_section:A-1/1:en:1",
		PairedResourceKey: "act_section:A-1/1:fr:1",
		TokenCount:        12,
		OverBudget:        true,
		Metadata: map[string]any{
			"source_type":   "act_section",
			"document_id":   "A-1",
			"language":      "en",
			"section_order": 1,
		},
	}

	row := FromChunk(c)

	assert.Equal(t, "act_section:A-1/1:en:1", row.ResourceKey)
	assert.Equal(t, "act_section:A-1/1:fr:1", row.PairedResourceKey)
	assert.Equal(t, "act_section", row.SourceType)
	assert.Equal(t, "A-1", row.DocumentID)
	assert.Equal(t, "en", row.Language)
	assert.Equal(t, 1, row.ChunkIndex)
	assert.Equal(t, 3, row.TotalChunks)
	assert.Equal(t, 12, row.TokenCount)
	assert.True(t, row.OverBudget)
	assert.Equal(t, 1, row.Metadata["section_order"])
}

func TestFromChunk_MissingMetadata(t *testing.T) {
	row := FromChunk(chunking.Chunk{ResourceKey: "footnote:x:en:0"})
	assert.Empty(t, row.SourceType)
	assert.Empty(t, row.DocumentID)
}
