package pagerank

import (
	"errors"

	"github.com/lioia/pagerank/pkg/graph"
)

var (
	// ErrEmptyGraph is returned when there is no node to rank.
	ErrEmptyGraph = errors.New("empty graph")
	// ErrInvalidConfiguration is returned when Options fail validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrGraphTooLarge is returned by RankLimited above its node cap.
	ErrGraphTooLarge = errors.New("graph too large")
	// ErrUnknownNodeReference is returned when an edge or a query names a
	// node outside the graph.
	ErrUnknownNodeReference = graph.ErrUnknownNode
)
