package recognizer

import (
	"errors"
	"fmt"
	"log"
)

// engine is a loaded inference session with one input and one output. Run
// copies the input in, invokes the model and returns the raw output bytes; it
// must leave the session reusable.
type engine interface {
	Run(input []float32) ([]byte, error)
	Close() error
}

// backendStrategy acquires an engine on one accelerator.
type backendStrategy struct {
	name string
	open func() (engine, error)
}

// acquireEngine tries strategies in rank order. The first success wins; when
// every strategy fails their errors are joined into ErrFailedToCreateEngine.
func acquireEngine(strategies []backendStrategy, logger *log.Logger) (engine, string, error) {
	var errs []error
	for _, s := range strategies {
		eng, err := s.open()
		if err == nil {
			if logger != nil {
				logger.Printf("inference backend %q ready", s.name)
			}
			return eng, s.name, nil
		}
		if logger != nil {
			logger.Printf("inference backend %q unavailable: %v", s.name, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no backends configured"))
	}
	return nil, "", &InitError{Kind: ErrFailedToCreateEngine, Err: errors.Join(errs...)}
}
