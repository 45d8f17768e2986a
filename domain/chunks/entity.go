package chunks

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/emergent-company/lims-pipeline/domain/chunking"
)

// Chunk is one stored chunk in the lims.chunks table. The embedding
// column is written separately through UpdateEmbeddings.
type Chunk struct {
	bun.BaseModel `bun:"table:lims.chunks,alias:c"`

	ID                uuid.UUID      `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	ResourceKey       string         `bun:"resource_key,notnull" json:"resourceKey"`
	PairedResourceKey string         `bun:"paired_resource_key,notnull" json:"pairedResourceKey"`
	SourceType        string         `bun:"source_type,notnull" json:"sourceType"`
	DocumentID        string         `bun:"document_id,notnull" json:"documentId"`
	Language          string         `bun:"language,notnull" json:"language"`
	ChunkIndex        int            `bun:"chunk_index,notnull" json:"chunkIndex"`
	TotalChunks       int            `bun:"total_chunks,notnull" json:"totalChunks"`
	Content           string         `bun:"content,notnull" json:"content"`
	TokenCount        int            `bun:"token_count,notnull" json:"tokenCount"`
	OverBudget        bool           `bun:"over_budget,notnull" json:"overBudget"`
	Metadata          map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// FromChunk converts a pipeline chunk into a row.
func FromChunk(c chunking.Chunk) *Chunk {
	return &Chunk{
		ResourceKey:       c.ResourceKey,
		PairedResourceKey: c.PairedResourceKey,
		SourceType:        metadataString(c.Metadata, "source_type"),
		DocumentID:        metadataString(c.Metadata, "document_id"),
		Language:          metadataString(c.Metadata, "language"),
		ChunkIndex:        c.ChunkIndex,
		TotalChunks:       c.TotalChunks,
		Content:           c.Content,
		TokenCount:        c.TokenCount,
		OverBudget:        c.OverBudget,
		Metadata:          c.Metadata,
	}
}

func metadataString(md map[string]any, key string) string {
	s, _ := md[key].(string)
	return s
}
