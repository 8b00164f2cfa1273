package common

// Entity represents a node in the knowledge graph. An entity can be an
// organization, person, location, or any other relevant concept. The name is
// the natural key: ingesting an entity whose name already exists updates the
// stored node instead of creating a second one.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Relationship represents a directed, typed, weighted edge between two
// entities, referenced by name. Missing types default to "related_to" and
// missing weights to 1.0 during ingestion.
type Relationship struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   string   `json:"type,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// Connection is a single outgoing 1-hop neighbor of a search result.
type Connection struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Rel  string `json:"rel"`
}

// SearchResult is one matched entity with its outgoing neighbors. Similarity
// is populated only by semantic search.
type SearchResult struct {
	Entity      string       `json:"entity"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Similarity  *float64     `json:"similarity,omitempty"`
	Connections []Connection `json:"connections"`
}

// BatchInsertResult summarizes one ingestion batch.
type BatchInsertResult struct {
	EntitiesProcessed int `json:"entities_processed"`
	EdgesCreated      int `json:"edges_created"`
	EmbeddingsCreated int `json:"embeddings_created"`
}

// DedupeResult summarizes one deduplication pass.
type DedupeResult struct {
	EntitiesMerged        int `json:"entities_merged"`
	SelfReferencesRemoved int `json:"self_references_removed"`
}

// BackfillResult summarizes one embedding backfill batch.
type BackfillResult struct {
	EmbeddingsAdded int `json:"embeddings_added"`
	NodesProcessed  int `json:"nodes_processed"`
}

// GraphStats holds the node and edge counters reported by the health check.
type GraphStats struct {
	Nodes               int64 `json:"nodes"`
	Edges               int64 `json:"edges"`
	NodesWithEmbeddings int64 `json:"nodes_with_embeddings"`
}

// VisualNode is a node shaped for graph visualization clients.
type VisualNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// VisualEdge is an edge shaped for graph visualization clients.
type VisualEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// GraphViewStats counts what actually made it into a GraphView after capping.
type GraphViewStats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// GraphView is the capped node/edge sample returned by the visualize endpoint.
type GraphView struct {
	Nodes []VisualNode   `json:"nodes"`
	Edges []VisualEdge   `json:"edges"`
	Stats GraphViewStats `json:"stats"`
}
