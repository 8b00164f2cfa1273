package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// EmbeddingOpenAIClient implements the ai.EmbeddingClient interface against an
// OpenAI-compatible embeddings endpoint. It also implements the batch fast
// path used by the storage layer.
type EmbeddingOpenAIClient struct {
	embeddingModel string
	dimensions     int

	reqLock *semaphore.Weighted

	Client *openai.Client
}

// NewEmbeddingOpenAIClientParams contains configuration options for creating
// a new EmbeddingOpenAIClient.
type NewEmbeddingOpenAIClientParams struct {
	EmbeddingModel string
	Dimensions     int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

// NewEmbeddingOpenAIClient creates a new OpenAI-based embedding client.
// Returns nil when no API key is configured.
func NewEmbeddingOpenAIClient(
	params NewEmbeddingOpenAIClientParams,
) *EmbeddingOpenAIClient {
	if params.ApiKey == "" {
		return nil
	}

	options := []option.RequestOption{
		option.WithAPIKey(params.ApiKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(options...)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &EmbeddingOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		dimensions:     params.Dimensions,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		Client: &client,
	}
}
