package relax

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/stipple/field"
)

var (
	// ErrInvalidField is returned by Start when the field cannot be relaxed.
	ErrInvalidField = field.ErrInvalidField
	// ErrInvalidCount is returned by Start when the site count is not positive.
	ErrInvalidCount = errors.New("invalid site count")
)

// SamplingExhaustedError reports a site that rejection sampling could not
// place within its retry budget. The site was placed uniformly at random
// instead; the run continues.
type SamplingExhaustedError struct {
	Site    int
	Retries int
}

func (e *SamplingExhaustedError) Error() string {
	return fmt.Sprintf("sampling exhausted for site %d after %d retries", e.Site, e.Retries)
}
