package pagerank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate = validator.New()

// MaxIterationsLimit caps Options.MaxIterations. It must match the lte tag
// below.
const MaxIterationsLimit = 100000

// Options configures the power iteration.
type Options struct {
	// DampingFactor is the probability of following an edge rather than
	// teleporting; usually 0.85.
	DampingFactor float64 `json:"dampingFactor" yaml:"dampingFactor" validate:"gt=0,lt=1"`
	MaxIterations int     `json:"maxIterations" yaml:"maxIterations" validate:"gt=0,lte=100000"`
	// Tolerance is the L1 distance between two successive score vectors
	// below which the iteration stops.
	Tolerance float64 `json:"tolerance" yaml:"tolerance" validate:"gt=0"`
	// Workers is the number of goroutines sharing the rows of each
	// matrix-vector product. 0 and 1 both mean serial.
	Workers int `json:"workers,omitempty" yaml:"workers" validate:"gte=0"`
}

// DefaultOptions returns damping 0.85, 50 iterations, tolerance 1e-6.
func DefaultOptions() Options {
	return Options{
		DampingFactor: 0.85,
		MaxIterations: 50,
		Tolerance:     1e-6,
		Workers:       1,
	}
}

// Validate reports every out-of-range field, wrapped in ErrInvalidConfiguration.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, describe(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", e.Field(), e.Param(), e.Value())
	case "lt":
		return fmt.Sprintf("%s must be less than %s (got %v)", e.Field(), e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s (got %v)", e.Field(), e.Param(), e.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", e.Field(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag())
	}
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}
