package graph

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned when an edge-list line cannot be parsed.
var ErrMalformedLine = errors.New("malformed edge line")

// LoadResource reads an edge list from a local file or, for an http:// or
// https:// URL, from the network.
func LoadResource(ctx context.Context, resource string) ([]Edge[int64], error) {
	var contents []byte
	// Check if it's a network resource or a local one
	if strings.HasPrefix(resource, "http://") || strings.HasPrefix(resource, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
		if err != nil {
			return nil, fmt.Errorf("could not build request for %s: %w", resource, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("could not load network file at %s: %w", resource, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("could not load network file at %s: %s", resource, resp.Status)
		}
		contents, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read body from %s: %w", resource, err)
		}
	} else {
		var err error
		contents, err = os.ReadFile(resource)
		if err != nil {
			return nil, fmt.Errorf("could not read graph at %s: %w", resource, err)
		}
	}
	edges, err := LoadFromBytes(contents)
	if err != nil {
		return nil, fmt.Errorf("could not load graph from %s: %w", resource, err)
	}
	return edges, nil
}

// LoadFromBytes parses an edge list held in memory.
func LoadFromBytes(contents []byte) ([]Edge[int64], error) {
	return Parse(bytes.NewReader(contents))
}

// Parse reads one edge per line. Both endpoints are integers separated by
// a comma, spaces or a tab. Blank lines and comment lines (#, //, %) are
// skipped, as is a non-numeric header on the first data line.
func Parse(r io.Reader) ([]Edge[int64], error) {
	var edges []Edge[int64]
	scanner := bufio.NewScanner(r)
	lineNo := 0
	seenData := false
	for scanner.Scan() {
		lineNo++
		edge, skip, err := convertLine(scanner.Text())
		if err != nil {
			if !seenData && isHeader(scanner.Text()) {
				seenData = true
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		// Comment line -> no new edge to add
		if skip {
			continue
		}
		seenData = true
		edges = append(edges, edge)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

func convertLine(line string) (Edge[int64], bool, error) {
	line = strings.TrimSpace(line)
	// Skip comment lines
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "%") {
		return Edge[int64]{}, true, nil
	}
	tokens := splitLine(line)
	if len(tokens) < 2 {
		return Edge[int64]{}, false, fmt.Errorf("%w: expected two node identifiers in %q", ErrMalformedLine, line)
	}
	from, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return Edge[int64]{}, false, fmt.Errorf("%w: could not convert FromNode %q", ErrMalformedLine, tokens[0])
	}
	to, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return Edge[int64]{}, false, fmt.Errorf("%w: could not convert ToNode %q", ErrMalformedLine, tokens[1])
	}
	return Edge[int64]{Source: from, Target: to}, false, nil
}

func splitLine(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
}

// isHeader reports whether line looks like "source,target".
func isHeader(line string) bool {
	tokens := splitLine(strings.TrimSpace(line))
	if len(tokens) < 2 {
		return false
	}
	for _, t := range tokens[:2] {
		if _, err := strconv.ParseInt(t, 10, 64); err == nil {
			return false
		}
	}
	return true
}
