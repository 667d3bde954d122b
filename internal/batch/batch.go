// Package batch runs every record of a submission file through a form.
package batch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"forminput/internal/config"
	"forminput/internal/input"
	etlio "forminput/internal/io"
	"forminput/internal/logging"
	"forminput/internal/util"

	"github.com/Knetic/govaluate"
)

// ErrEngine marks a record that could not be validated at all, as opposed
// to one that failed its rules. It always halts a run.
var ErrEngine = errors.New("validation engine fault")

// Runner processes a batch of raw submissions.
// This allows the app to swap in a stub during tests.
type Runner interface {
	Run(records []map[string]interface{}) ([]map[string]interface{}, error)
	ErrorCount() int64
	FilteredCount() int64
}

type expressionEvaluator interface {
	Evaluate(map[string]interface{}) (interface{}, error)
}

type runner struct {
	form          input.Form
	engine        input.Validator
	filter        expressionEvaluator
	cast          bool
	errorHandling *config.ErrorHandlingConfig
	rejects       etlio.RejectWriter
	errorCount    atomic.Int64
	filteredCount atomic.Int64
}

// New builds a Runner for cfg. rejects may be nil, in which case skipped
// records are only logged.
func New(form input.Form, engine input.Validator, cfg *config.BatchConfig, rejects etlio.RejectWriter) (Runner, error) {
	if cfg == nil {
		cfg = &config.BatchConfig{}
	}
	eh := &config.ErrorHandlingConfig{}
	if cfg.ErrorHandling != nil {
		*eh = *cfg.ErrorHandling
	}
	if eh.Mode == "" {
		eh.Mode = config.ErrorHandlingModeHalt
	}
	if eh.Mode == config.ErrorHandlingModeSkip && eh.LogErrors == nil {
		trueVal := true
		eh.LogErrors = &trueVal
	}

	r := &runner{
		form:          form,
		engine:        engine,
		cast:          cfg.Cast == nil || *cfg.Cast,
		errorHandling: eh,
		rejects:       rejects,
	}
	if cfg.Filter != "" {
		expr, err := govaluate.NewEvaluableExpression(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression '%s': %w", cfg.Filter, err)
		}
		r.filter = expr
	}
	return r, nil
}

// ErrorCount returns the number of records rejected in the last run.
func (r *runner) ErrorCount() int64 {
	return r.errorCount.Load()
}

// FilteredCount returns the number of records the filter dropped in the last run.
func (r *runner) FilteredCount() int64 {
	return r.filteredCount.Load()
}

// Run filters, validates and casts each record in order. Records that fail
// are rejected according to the error handling mode; engine faults stop the
// run in either mode.
func (r *runner) Run(records []map[string]interface{}) ([]map[string]interface{}, error) {
	r.errorCount.Store(0)
	r.filteredCount.Store(0)
	if len(records) == 0 {
		logging.Logf(logging.Info, "Batch: No records to process.")
		return []map[string]interface{}{}, nil
	}

	accepted := make([]map[string]interface{}, 0, len(records))
	for i, raw := range records {
		keep, err := r.keep(raw)
		if err != nil {
			if herr := r.reject(i, raw, err); herr != nil {
				return nil, herr
			}
			continue
		}
		if !keep {
			r.filteredCount.Add(1)
			logging.Logf(logging.Debug, "Batch: Record %d skipped by filter.", i)
			continue
		}

		values, err := r.process(raw)
		if errors.Is(err, ErrEngine) {
			logging.Logf(logging.Error, "Batch: Record %d: %v. Halting.", i, err)
			return nil, fmt.Errorf("error processing record %d: %w", i, err)
		}
		if err != nil {
			if herr := r.reject(i, raw, err); herr != nil {
				return nil, herr
			}
			continue
		}
		accepted = append(accepted, values)
	}

	if n := r.ErrorCount(); n > 0 {
		logging.Logf(logging.Warning, "Batch: Finished. %d accepted, %d rejected, %d filtered.", len(accepted), n, r.FilteredCount())
	} else {
		logging.Logf(logging.Debug, "Batch: Finished. %d accepted, %d filtered.", len(accepted), r.FilteredCount())
	}
	return accepted, nil
}

func (r *runner) keep(raw map[string]interface{}) (bool, error) {
	if r.filter == nil {
		return true, nil
	}
	result, err := r.filter.Evaluate(raw)
	if err != nil {
		return false, fmt.Errorf("filter eval error: %w", err)
	}
	keep, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter non-bool: %T (%v)", result, result)
	}
	return keep, nil
}

func (r *runner) process(raw map[string]interface{}) (map[string]interface{}, error) {
	p := input.New(r.form, raw, r.engine)
	ok, err := p.Validate(nil, nil, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if !ok {
		failure, _ := p.Validation()
		return nil, failure
	}
	values, err := p.Input(r.cast)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}(values), nil
}

// reject counts a failed record and applies the error handling mode. It
// returns a non-nil error when the run must halt.
func (r *runner) reject(index int, raw map[string]interface{}, err error) error {
	r.errorCount.Add(1)
	if r.errorHandling.Mode == config.ErrorHandlingModeHalt {
		logging.Logf(logging.Error, "Batch: Record %d rejected: %v. Halting.", index, err)
		return fmt.Errorf("error processing record %d (halting): %w", index, err)
	}

	if r.errorHandling.LogErrors == nil || *r.errorHandling.LogErrors {
		logging.Logf(logging.Warning, "Batch: Record %d rejected: %v. Skipping. Original (masked): %v", index, err, util.MaskSensitiveData(raw))
	}
	if r.rejects != nil {
		if werr := r.rejects.Write(raw, err); werr != nil {
			logging.Logf(logging.Error, "Batch: Failed to write record %d to error file: %v", index, werr)
		}
	}
	return nil
}
