package models

// Chat roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one completion call. Model is chosen by the client.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// IndexQuery is a nearest-neighbour search against the standards index.
type IndexQuery struct {
	Vector          []float32
	TopK            int
	IncludeMetadata bool
	Filter          *MetadataFilter
}

// Chunk is one embedded passage written to the index by the seeder.
type Chunk struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}
