package worker

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/pagerank"
)

// ContentType of every message on the work and result queues.
const ContentType = "application/x-protobuf"

// maxExactID is the largest integer a protobuf double carries without loss.
const maxExactID = 1 << 53

// ErrMalformedMessage is returned when a message body is not a valid job or result.
var ErrMalformedMessage = errors.New("malformed message")

// Job is one ranking request. A nil Nodes infers the node set from Edges.
type Job struct {
	ID      string
	Nodes   []int64
	Edges   []graph.Edge[int64]
	Options *pagerank.Options
	// Top limits Ranking in the result; 0 or less returns every node.
	Top int
}

type JobResult struct {
	ID         string
	Scores     map[int64]float64
	Ranking    []pagerank.Ranked[int64]
	Iterations int
	Converged  bool
	Delta      float64
	// Error is set when the engine rejected the job.
	Error string
}

// EncodeJob serializes job as a protobuf Struct.
func EncodeJob(job Job) ([]byte, error) {
	fields := map[string]any{
		"id":  job.ID,
		"top": job.Top,
	}
	if job.Nodes != nil {
		nodes := make([]any, len(job.Nodes))
		for i, n := range job.Nodes {
			if err := checkID(n); err != nil {
				return nil, err
			}
			nodes[i] = n
		}
		fields["nodes"] = nodes
	}
	edges := make([]any, len(job.Edges))
	for i, e := range job.Edges {
		if err := checkID(e.Source); err != nil {
			return nil, err
		}
		if err := checkID(e.Target); err != nil {
			return nil, err
		}
		edges[i] = []any{e.Source, e.Target}
	}
	fields["edges"] = edges
	if o := job.Options; o != nil {
		fields["options"] = map[string]any{
			"dampingFactor": o.DampingFactor,
			"maxIterations": o.MaxIterations,
			"tolerance":     o.Tolerance,
			"workers":       o.Workers,
		}
	}
	return marshal(fields)
}

// DecodeJob parses a job. Options fields missing from the message are taken
// from defaults.
func DecodeJob(data []byte, defaults pagerank.Options) (Job, error) {
	m, err := unmarshal(data)
	if err != nil {
		return Job{}, err
	}

	var job Job
	if job.ID, err = stringField(m, "id"); err != nil {
		return Job{}, err
	}
	if job.Top, err = intField(m, "top"); err != nil {
		return Job{}, err
	}
	if raw, ok := m["nodes"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return Job{}, fmt.Errorf("%w: nodes is not a list", ErrMalformedMessage)
		}
		job.Nodes = make([]int64, len(list))
		for i, v := range list {
			if job.Nodes[i], err = toID(v); err != nil {
				return Job{}, err
			}
		}
	}
	if job.Edges, err = edgesField(m); err != nil {
		return Job{}, err
	}

	opts := defaults
	if raw, ok := m["options"]; ok && raw != nil {
		om, ok := raw.(map[string]any)
		if !ok {
			return Job{}, fmt.Errorf("%w: options is not an object", ErrMalformedMessage)
		}
		if v, ok := om["dampingFactor"].(float64); ok {
			opts.DampingFactor = v
		}
		if v, ok := om["tolerance"].(float64); ok {
			opts.Tolerance = v
		}
		if _, ok := om["maxIterations"]; ok {
			if opts.MaxIterations, err = intField(om, "maxIterations"); err != nil {
				return Job{}, err
			}
		}
		if _, ok := om["workers"]; ok {
			if opts.Workers, err = intField(om, "workers"); err != nil {
				return Job{}, err
			}
		}
	}
	job.Options = &opts
	return job, nil
}

// EncodeResult serializes a result. Scores travel as [node, score] pairs.
func EncodeResult(r JobResult) ([]byte, error) {
	scores := make([]any, 0, len(r.Scores))
	for n, s := range r.Scores {
		if err := checkID(n); err != nil {
			return nil, err
		}
		scores = append(scores, []any{n, s})
	}
	ranking := make([]any, len(r.Ranking))
	for i, e := range r.Ranking {
		ranking[i] = []any{e.Node, e.Score}
	}
	return marshal(map[string]any{
		"id":         r.ID,
		"scores":     scores,
		"ranking":    ranking,
		"iterations": r.Iterations,
		"converged":  r.Converged,
		"delta":      r.Delta,
		"error":      r.Error,
	})
}

func DecodeResult(data []byte) (JobResult, error) {
	m, err := unmarshal(data)
	if err != nil {
		return JobResult{}, err
	}

	var r JobResult
	if r.ID, err = stringField(m, "id"); err != nil {
		return JobResult{}, err
	}
	if r.Error, err = stringField(m, "error"); err != nil {
		return JobResult{}, err
	}
	if r.Iterations, err = intField(m, "iterations"); err != nil {
		return JobResult{}, err
	}
	r.Converged, _ = m["converged"].(bool)
	r.Delta, _ = m["delta"].(float64)

	scores, err := pairsField(m, "scores")
	if err != nil {
		return JobResult{}, err
	}
	r.Scores = make(map[int64]float64, len(scores))
	for _, s := range scores {
		r.Scores[s.Node] = s.Score
	}
	if r.Ranking, err = pairsField(m, "ranking"); err != nil {
		return JobResult{}, err
	}
	return r, nil
}

func marshal(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func unmarshal(data []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return s.AsMap(), nil
}

func checkID(n int64) error {
	if n > maxExactID || n < -maxExactID {
		return fmt.Errorf("node %d does not fit the wire format", n)
	}
	return nil
}

func toID(v any) (int64, error) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactID {
		return 0, fmt.Errorf("%w: %v is not a node identifier", ErrMalformedMessage, v)
	}
	return int64(f), nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformedMessage, key)
	}
	return s, nil
}

func intField(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformedMessage, key)
	}
	if math.Abs(f) > maxExactID {
		return 0, fmt.Errorf("%w: %s is out of range", ErrMalformedMessage, key)
	}
	return int(f), nil
}

func edgesField(m map[string]any) ([]graph.Edge[int64], error) {
	raw, ok := m["edges"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: edges is not a list", ErrMalformedMessage)
	}
	edges := make([]graph.Edge[int64], len(list))
	for i, v := range list {
		pair, ok := v.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: edge %d is not a pair", ErrMalformedMessage, i)
		}
		src, err := toID(pair[0])
		if err != nil {
			return nil, err
		}
		dst, err := toID(pair[1])
		if err != nil {
			return nil, err
		}
		edges[i] = graph.Edge[int64]{Source: src, Target: dst}
	}
	return edges, nil
}

func pairsField(m map[string]any, key string) ([]pagerank.Ranked[int64], error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedMessage, key)
	}
	out := make([]pagerank.Ranked[int64], len(list))
	for i, v := range list {
		pair, ok := v.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: %s entry %d is not a pair", ErrMalformedMessage, key, i)
		}
		node, err := toID(pair[0])
		if err != nil {
			return nil, err
		}
		score, ok := pair[1].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s entry %d has no score", ErrMalformedMessage, key, i)
		}
		out[i] = pagerank.Ranked[int64]{Node: node, Score: score}
	}
	return out, nil
}
