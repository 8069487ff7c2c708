package sources

import (
	"fmt"

	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
)

// defaultHandlerFactory is the default implementation of HandlerFactory
type defaultHandlerFactory struct {
	fetcher fetch.Client
}

var _ HandlerFactory = (*defaultHandlerFactory)(nil)

// NewHandlerFactory creates a handler factory whose handlers resolve
// documents through the given fetcher
func NewHandlerFactory(fetcher fetch.Client) HandlerFactory {
	return &defaultHandlerFactory{fetcher: fetcher}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultHandlerFactory) CreateHandler(sourceType string) (Handler, error) {
	switch sourceType {
	case config.SourceTypeTOMLRepo:
		return NewTOMLRepoHandler(f.fetcher), nil
	case config.SourceTypeBase16:
		return NewBase16Handler(f.fetcher), nil
	case config.SourceTypeGogh:
		return NewGoghHandler(f.fetcher), nil
	case config.SourceTypeITerm2:
		return NewITerm2Handler(f.fetcher), nil
	case config.SourceTypeSexy:
		return NewSexyHandler(f.fetcher), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
