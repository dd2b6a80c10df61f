package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/messaging/email"
	"github.com/ncobase/jobqueue/nanoid"
)

// builtin simulates the work of each job type
type builtin struct {
	scale  float64
	mailer email.Sender
}

func (b *builtin) bulkImport(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing bulk import", "job_id", job.ID)

	if _, ok := job.Payload["data"]; !ok {
		return nil, errors.New("missing import data in payload")
	}
	var p struct {
		Data []any `mapstructure:"data"`
	}
	if err := decode(job.Payload, &p); err != nil || p.Data == nil {
		return nil, errors.New("import data must be an array")
	}

	if err := sleep(ctx, time.Duration(len(p.Data))*100*time.Millisecond, b.scale); err != nil {
		return nil, err
	}

	return map[string]any{
		"imported_count": len(p.Data),
		"success":        true,
		"message":        fmt.Sprintf("Successfully imported %d items", len(p.Data)),
	}, nil
}

func (b *builtin) bulkExport(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing bulk export", "job_id", job.ID)

	var p struct {
		Format string `mapstructure:"format"`
	}
	if err := decode(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.Format == "" {
		p.Format = "json"
	}
	_, filtered := job.Payload["filters"]

	if err := sleep(ctx, 2*time.Second, b.scale); err != nil {
		return nil, err
	}

	return map[string]any{
		"export_format":   p.Format,
		"filters_applied": filtered,
		"exported_count":  100,
		"file_path":       fmt.Sprintf("/exports/export_%s.%s", job.ID, p.Format),
		"success":         true,
	}, nil
}

func (b *builtin) dataMigration(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing data migration", "job_id", job.ID)

	var p struct {
		MigrationType string `mapstructure:"migration_type"`
	}
	if err := decode(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.MigrationType == "" {
		return nil, errors.New("missing migration_type in payload")
	}

	if err := sleep(ctx, 5*time.Second, b.scale); err != nil {
		return nil, err
	}

	return map[string]any{
		"migration_type":   p.MigrationType,
		"migrated_records": 250,
		"success":          true,
		"duration_seconds": 5,
	}, nil
}

func (b *builtin) fileProcessing(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing file processing", "job_id", job.ID)

	var p struct {
		FileID    string `mapstructure:"file_id"`
		Operation string `mapstructure:"operation"`
	}
	if err := decode(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.FileID == "" {
		return nil, errors.New("missing file_id in payload")
	}
	if p.Operation == "" {
		p.Operation = "process"
	}

	if err := sleep(ctx, 3*time.Second, b.scale); err != nil {
		return nil, err
	}

	return map[string]any{
		"file_id":     p.FileID,
		"operation":   p.Operation,
		"processed":   true,
		"output_file": "processed_" + p.FileID,
	}, nil
}

func (b *builtin) emailNotification(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing email notification", "job_id", job.ID)

	var p struct {
		Recipient string         `mapstructure:"recipient"`
		Subject   string         `mapstructure:"subject"`
		Template  string         `mapstructure:"template"`
		Body      string         `mapstructure:"body"`
		Data      map[string]any `mapstructure:"data"`
	}
	if err := decode(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.Recipient == "" {
		return nil, errors.New("missing recipient in payload")
	}
	if p.Subject == "" {
		p.Subject = "Notification"
	}

	if b.mailer == nil {
		if err := sleep(ctx, 500*time.Millisecond, b.scale); err != nil {
			return nil, err
		}
		return map[string]any{
			"recipient":  p.Recipient,
			"subject":    p.Subject,
			"sent":       true,
			"message_id": "msg_" + nanoid.String(21),
		}, nil
	}

	if p.Body == "" {
		p.Body = p.Subject
	}
	id, err := b.mailer.SendTemplateEmail(ctx, p.Recipient, email.Template{
		Subject:   p.Subject,
		Template:  p.Template,
		Body:      p.Body,
		Variables: p.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	return map[string]any{
		"recipient":  p.Recipient,
		"subject":    p.Subject,
		"sent":       true,
		"message_id": id,
	}, nil
}

func (b *builtin) reportGeneration(ctx context.Context, job *structs.Job) (map[string]any, error) {
	logger.Info(ctx, "executing report generation", "job_id", job.ID)

	var p struct {
		ReportType string `mapstructure:"report_type"`
		DateRange  any    `mapstructure:"date_range"`
	}
	if err := decode(job.Payload, &p); err != nil {
		return nil, err
	}
	if p.ReportType == "" {
		return nil, errors.New("missing report_type in payload")
	}

	if err := sleep(ctx, 4*time.Second, b.scale); err != nil {
		return nil, err
	}

	return map[string]any{
		"report_type": p.ReportType,
		"date_range":  p.DateRange,
		"generated":   true,
		"report_file": fmt.Sprintf("reports/%s_%s.pdf", p.ReportType, job.ID),
		"pages":       15,
	}, nil
}
