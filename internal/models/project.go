package models

import "time"

// Project is only read by this service, to check existence and ownership
// before handing out upload URLs.
type Project struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     string    `gorm:"type:varchar(128);not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSettings is passthrough configuration reserved for a retrieval
// pipeline. Nothing in this service reads it.
type ProjectSettings struct {
	ProjectID           string    `gorm:"type:varchar(36);primaryKey" json:"project_id"`
	EmbeddingModel      string    `gorm:"size:128" json:"embedding_model"`
	RAGStrategy         string    `gorm:"size:64" json:"rag_strategy"`
	AgentType           string    `gorm:"size:64" json:"agent_type"`
	ChunksPerSearch     int       `json:"chunks_per_search"`
	FinalContextSize    int       `json:"final_context_size"`
	SimilarityThreshold float64   `json:"similarity_threshold"`
	NumberOfQueries     int       `json:"number_of_queries"`
	RerankingEnabled    bool      `json:"reranking_enabled"`
	RerankingModel      string    `gorm:"size:128" json:"reranking_model"`
	VectorWeight        float64   `json:"vector_weight"`
	KeywordWeight       float64   `json:"keyword_weight"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultProjectSettings returns the values a new project starts with.
func DefaultProjectSettings(projectID string) ProjectSettings {
	return ProjectSettings{
		ProjectID:           projectID,
		EmbeddingModel:      "text-embedding-3-large",
		RAGStrategy:         "basic",
		AgentType:           "agentic",
		ChunksPerSearch:     10,
		FinalContextSize:    5,
		SimilarityThreshold: 0.3,
		NumberOfQueries:     5,
		RerankingEnabled:    true,
		RerankingModel:      "rerank-english-v3.0",
		VectorWeight:        0.7,
		KeywordWeight:       0.3,
	}
}

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&Project{},
		&ProjectSettings{},
		&Document{},
		&Chat{},
		&Message{},
	}
}
