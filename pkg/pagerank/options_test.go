package pagerank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 0.85, opts.DampingFactor)
	assert.Equal(t, 50, opts.MaxIterations)
	assert.Equal(t, 1e-6, opts.Tolerance)
	assert.NoError(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		field  string
	}{
		{"zero damping", func(o *Options) { o.DampingFactor = 0 }, "DampingFactor"},
		{"damping of one", func(o *Options) { o.DampingFactor = 1 }, "DampingFactor"},
		{"negative damping", func(o *Options) { o.DampingFactor = -0.5 }, "DampingFactor"},
		{"nan damping", func(o *Options) { o.DampingFactor = math.NaN() }, "DampingFactor"},
		{"zero iterations", func(o *Options) { o.MaxIterations = 0 }, "MaxIterations"},
		{"negative iterations", func(o *Options) { o.MaxIterations = -3 }, "MaxIterations"},
		{"too many iterations", func(o *Options) { o.MaxIterations = MaxIterationsLimit + 1 }, "MaxIterations"},
		{"huge iterations", func(o *Options) { o.MaxIterations = 1 << 62 }, "MaxIterations"},
		{"zero tolerance", func(o *Options) { o.Tolerance = 0 }, "Tolerance"},
		{"negative tolerance", func(o *Options) { o.Tolerance = -1e-6 }, "Tolerance"},
		{"negative workers", func(o *Options) { o.Workers = -1 }, "Workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestOptionsValidate_ReportsEveryField(t *testing.T) {
	err := Options{}.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	for _, field := range []string{"DampingFactor", "MaxIterations", "Tolerance"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestOptionsValidate_IterationLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = MaxIterationsLimit
	assert.NoError(t, opts.Validate())
}

func TestOptionsWorkers(t *testing.T) {
	assert.Equal(t, 1, Options{Workers: 0}.workers())
	assert.Equal(t, 4, Options{Workers: 4}.workers())
}
