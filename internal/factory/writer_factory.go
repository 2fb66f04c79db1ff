package factory

import (
	"fmt"

	"FlowTagger/internal/config"
	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
)

// WriterFactory defines a function that creates a writer from its definition.
type WriterFactory func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered reports whether a writer type is known.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

// Create creates every enabled writer in the config, in definition order.
func Create(cfg *config.Config, log logrus.FieldLogger) ([]model.Writer, error) {
	var writers []model.Writer

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		log.WithField("writer", def.Type).Debug("Creating writer")

		factory, ok := registry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		writer, err := factory(def, log)
		if err != nil {
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, writer)
	}

	return writers, nil
}
