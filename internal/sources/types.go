package sources

import (
	"context"

	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/scheme"
)

//go:generate mockgen -destination=mocks/mock_handler.go -package=mocks -source=types.go Handler,HandlerFactory

// Handler is an interface with methods to fetch color schemes from an
// external collection
type Handler interface {
	// FetchSchemes retrieves the source's documents and converts them
	// into scheme candidates
	FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(src *config.SourceConfig) error
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Schemes are the candidates parsed from the source, in the order
	// the source presented them
	Schemes []scheme.Scheme

	// Failures records documents that looked like schemes but could
	// not be parsed. They are reported and skipped; a bad document in
	// a collection never aborts the sync
	Failures []ParseFailure
}

// ParseFailure identifies one unparseable document within a source
type ParseFailure struct {
	// Path locates the document, including the URL it was fetched
	// under
	Path string

	// Err is the parse error
	Err error
}

// HandlerFactory creates source handlers based on source type
type HandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (Handler, error)
}
