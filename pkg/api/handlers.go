package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/logging"
	"github.com/lioia/pagerank/pkg/metrics"
	"github.com/lioia/pagerank/pkg/pagerank"
)

// ErrGraphTooLarge is returned when a graph exceeds the configured node cap.
var ErrGraphTooLarge = pagerank.ErrGraphTooLarge

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleRank(c echo.Context) error {
	// Fields left out of the body keep the configured defaults
	defaults := s.config.PageRank
	req := RankRequest{Options: &defaults}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, _, err := s.rank(c.Request().Context(), req.Nodes, req.Edges, s.options(req.Options))
	if err != nil {
		return toHTTPError(err)
	}

	top := req.Top
	if top == 0 {
		top = s.config.API.TopK
	}
	if top < 0 {
		top = 0
	}
	return c.JSON(http.StatusOK, RankResponse{
		Scores:     res.Scores,
		Ranking:    res.Top(top),
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Delta:      res.Delta,
	})
}

func (s *Server) handleRecommend(c echo.Context) error {
	defaults := s.config.PageRank
	req := RecommendRequest{Options: &defaults, Limit: DefaultRecommendations}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, g, err := s.rank(c.Request().Context(), req.Nodes, req.Edges, s.options(req.Options))
	if err != nil {
		return toHTTPError(err)
	}
	recs, err := pagerank.Recommend(g, res, req.Node, req.Limit)
	if err != nil {
		return toHTTPError(err)
	}
	neighbors, _ := g.NeighborsOf(req.Node)
	return c.JSON(http.StatusOK, RecommendResponse{
		Node:            req.Node,
		Neighbors:       neighbors,
		Recommendations: recs,
	})
}

// rank builds the graph, enforces the size cap and runs the engine under the
// request timeout.
func (s *Server) rank(ctx context.Context, nodes []int64, edges []graph.Edge[int64], opts pagerank.Options) (*pagerank.Result[int64], *graph.Graph[int64], error) {
	start := time.Now()
	res, g, err := s.compute(ctx, nodes, edges, opts)
	if err != nil {
		s.metrics.RecordComputation(metrics.StatusError, time.Since(start), 0, 0)
		return nil, nil, err
	}
	s.metrics.RecordComputation(metrics.ComputationStatus(res.Converged, nil), time.Since(start), res.Iterations, g.Len())
	return res, g, nil
}

func (s *Server) compute(ctx context.Context, nodes []int64, edges []graph.Edge[int64], opts pagerank.Options) (*pagerank.Result[int64], *graph.Graph[int64], error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.API.Timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logging.Component(s.logger, "solver"))
	return pagerank.RankLimited(ctx, nodes, edges, opts, s.config.API.MaxNodes)
}

// options falls back to the configured defaults when the body sets
// "options": null.
func (s *Server) options(o *pagerank.Options) pagerank.Options {
	if o == nil {
		return s.config.PageRank
	}
	return *o
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, pagerank.ErrEmptyGraph),
		errors.Is(err, pagerank.ErrUnknownNodeReference),
		errors.Is(err, pagerank.ErrInvalidConfiguration),
		errors.Is(err, ErrGraphTooLarge):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "computation timed out")
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "computation cancelled")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
