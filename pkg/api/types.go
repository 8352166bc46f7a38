package api

import (
	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/pagerank"
)

// RankRequest carries a whole graph. A missing nodes field infers the node
// set from the edges; a present one is the declared node set.
type RankRequest struct {
	Nodes   []int64             `json:"nodes,omitempty"`
	Edges   []graph.Edge[int64] `json:"edges"`
	Options *pagerank.Options   `json:"options,omitempty"`
	// Top limits the ranking list; 0 uses the server default, -1 returns every node.
	Top int `json:"top,omitempty"`
}

type RankResponse struct {
	Scores     map[int64]float64        `json:"scores"`
	Ranking    []pagerank.Ranked[int64] `json:"ranking"`
	Iterations int                      `json:"iterations"`
	Converged  bool                     `json:"converged"`
	Delta      float64                  `json:"delta"`
}

type RecommendRequest struct {
	Nodes   []int64             `json:"nodes,omitempty"`
	Edges   []graph.Edge[int64] `json:"edges"`
	Options *pagerank.Options   `json:"options,omitempty"`
	Node    int64               `json:"node"`
	Limit   int                 `json:"limit,omitempty"`
}

type RecommendResponse struct {
	Node            int64                    `json:"node"`
	Neighbors       []int64                  `json:"neighbors"`
	Recommendations []pagerank.Ranked[int64] `json:"recommendations"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// DefaultRecommendations is the number of recommendations when the request
// does not set a limit.
const DefaultRecommendations = 3
