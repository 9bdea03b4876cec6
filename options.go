package rnginline

import (
	"github.com/rs/zerolog"

	"github.com/jacoelho/rnginline/internal/postprocess"
)

// Options configures an Inliner. The zero value (or NewOptions) selects the
// defaults: the file and package-data handlers, the datatype-library
// propagation postprocessor, a file URL for the current working directory
// as default base URI, and no logging.
type Options struct {
	handlers       []Handler
	postprocessors []PostProcessor
	defaultBaseURI string
	logger         *zerolog.Logger
}

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// WithHandlers sets the URL handlers consulted, in order, to fetch each
// referenced schema.
func (o Options) WithHandlers(handlers ...Handler) Options {
	o.handlers = handlers
	return o
}

// WithPostProcessors sets the whole-tree passes applied after inlining.
// Passing none disables the default datatype-library propagation.
func (o Options) WithPostProcessors(passes ...PostProcessor) Options {
	o.postprocessors = append([]PostProcessor{}, passes...)
	return o
}

// WithDefaultBaseURI sets the root URI all others resolve against. It must
// be an absolute URI; the default is a file URL for the current working
// directory.
func (o Options) WithDefaultBaseURI(baseURI string) Options {
	o.defaultBaseURI = baseURI
	return o
}

// WithLogger sets the logger the engine traces resolution steps to at
// debug level.
func (o Options) WithLogger(logger zerolog.Logger) Options {
	o.logger = &logger
	return o
}

// DefaultPostProcessors returns the default postprocessor pipeline.
func DefaultPostProcessors() []PostProcessor {
	return postprocess.Defaults()
}
