package board

import (
	"github.com/google/uuid"

	"boardcore/internal/logging"
	"boardcore/pkg/geometry"
)

// Config carries the application-wide defaults a board is created with.
type Config struct {
	DefaultFont       string
	GridInterval      geometry.Length
	GridUnit          string
	FileFormatVersion string
}

// DefaultConfig returns the defaults used when no Config is given.
func DefaultConfig() Config {
	return Config{
		DefaultFont:       "newstroke.bene",
		GridInterval:      635 * geometry.Micrometer,
		GridUnit:          "millimeters",
		FileFormatVersion: "1",
	}
}

// Option configures a Board at construction.
type Option func(*Board)

// WithConfig replaces DefaultConfig().
func WithConfig(cfg Config) Option { return func(b *Board) { b.cfg = cfg } }

// WithLogger sets the board logger.
func WithLogger(l logging.Logger) Option { return func(b *Board) { b.logger = logging.OrNoop(l) } }

// WithFragmentsBuilder replaces the default plane fill collaborator.
func WithFragmentsBuilder(fb FragmentsBuilder) Option {
	return func(b *Board) {
		if fb != nil {
			b.fragmentsBuilder = fb
		}
	}
}

// WithAirWiresBuilder replaces the default airwire collaborator.
func WithAirWiresBuilder(ab AirWiresBuilder) Option {
	return func(b *Board) {
		if ab != nil {
			b.airWiresBuilder = ab
		}
	}
}

// WithUUID overrides the generated board UUID.
func WithUUID(id uuid.UUID) Option { return func(b *Board) { b.uuid = id } }
