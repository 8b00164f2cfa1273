package ai

import (
	"github.com/seethb/GraphRAG/internal/util"
	"github.com/seethb/GraphRAG/pkg/ai/ollama"
	"github.com/seethb/GraphRAG/pkg/ai/openai"
	"github.com/seethb/GraphRAG/pkg/logger"
)

const defaultEmbeddingDimensions = 384

// GatewayFromEnv builds the embedding gateway from AI_* environment
// variables. AI_ADAPTER selects the provider ("ollama" or the default
// OpenAI-compatible client); an unconfigured provider yields a disabled
// gateway rather than an error, so deployments without an embedding backend
// still serve everything except vector operations.
func GatewayFromEnv() *Gateway {
	var (
		model      = util.GetEnv("AI_EMBED_MODEL")
		dimensions = int(util.GetEnvNumeric("AI_EMBED_DIM", defaultEmbeddingDimensions))
		maxReq     = int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15))
	)

	var client EmbeddingClient
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		c, err := ollama.NewEmbeddingOllamaClient(ollama.NewEmbeddingOllamaClientParams{
			EmbeddingModel: model,
			Dimensions:     dimensions,

			BaseURL: util.GetEnv("AI_EMBED_URL"),
			ApiKey:  util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: maxReq,
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		client = c
	default:
		c := openai.NewEmbeddingOpenAIClient(openai.NewEmbeddingOpenAIClientParams{
			EmbeddingModel: model,
			Dimensions:     dimensions,

			BaseURL: util.GetEnv("AI_EMBED_URL"),
			ApiKey:  util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: maxReq,
		})
		if c != nil {
			client = c
		}
	}

	if client == nil {
		logger.Warn("No embedding provider configured, vector operations are disabled")
		return NewGateway(GatewayParams{})
	}
	return NewGateway(GatewayParams{
		Client:     client,
		Model:      model,
		Dimensions: dimensions,
	})
}
