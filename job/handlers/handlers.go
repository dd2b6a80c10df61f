// Package handlers maps job types to the functions that execute them.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/messaging/email"
)

// Func executes a job and returns its result
type Func func(ctx context.Context, job *structs.Job) (map[string]any, error)

// Set holds one handler per job type. A Set with any nil field is rejected by
// Validate, so an unmapped job type fails at startup instead of at dispatch.
type Set struct {
	BulkImport        Func
	BulkExport        Func
	DataMigration     Func
	FileProcessing    Func
	EmailNotification Func
	ReportGeneration  Func
}

// For returns the handler for t
func (s *Set) For(t structs.JobType) (Func, error) {
	var fn Func
	switch t {
	case structs.TypeBulkImport:
		fn = s.BulkImport
	case structs.TypeBulkExport:
		fn = s.BulkExport
	case structs.TypeDataMigration:
		fn = s.DataMigration
	case structs.TypeFileProcessing:
		fn = s.FileProcessing
	case structs.TypeEmailNotification:
		fn = s.EmailNotification
	case structs.TypeReportGeneration:
		fn = s.ReportGeneration
	default:
		return nil, fmt.Errorf("unknown job type %q", t)
	}
	if fn == nil {
		return nil, fmt.Errorf("no handler for job type %q", t)
	}
	return fn, nil
}

// Validate checks that every job type has a handler
func (s *Set) Validate() error {
	if s == nil {
		return errors.New("handlers: nil set")
	}
	var errs []error
	for _, t := range structs.JobTypes {
		if _, err := s.For(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config tunes the built-in handlers
type Config struct {
	// TimeScale multiplies the simulated work durations; 0 disables them.
	TimeScale float64
	// Mailer delivers email_notification jobs. Nil simulates delivery.
	Mailer email.Sender
}

// Default returns the built-in handler set
func Default(cfg Config) *Set {
	b := &builtin{scale: cfg.TimeScale, mailer: cfg.Mailer}
	return &Set{
		BulkImport:        b.bulkImport,
		BulkExport:        b.bulkExport,
		DataMigration:     b.dataMigration,
		FileProcessing:    b.fileProcessing,
		EmailNotification: b.emailNotification,
		ReportGeneration:  b.reportGeneration,
	}
}

// decode copies payload into out using mapstructure tags
func decode(payload map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// sleep waits for d scaled by scale, or until ctx is done
func sleep(ctx context.Context, d time.Duration, scale float64) error {
	wait := time.Duration(float64(d) * scale)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
