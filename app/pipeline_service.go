package app

import (
	"context"
	"fmt"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/domain/run"
	"assesstime/internal/aggregate"
	"assesstime/internal/config"
	"assesstime/internal/errors"
	"assesstime/internal/funnel"
	"assesstime/internal/ingest"
	"assesstime/internal/logging"
	"assesstime/ports"
)

// CodeVersion is recorded in every run fingerprint. Bump it whenever a
// change alters results for unchanged inputs.
const CodeVersion = "1.0.0"

// PipelineService runs ingestion, cleaning and aggregation end to end
type PipelineService struct {
	readerPort      ports.TableReaderPort
	fingerprintPort ports.InputFingerprintPort
	writerPort      ports.ResultWriterPort
	metricsPort     ports.MetricsPort
	logger          ports.Logger
}

// PipelineOption customizes a PipelineService
type PipelineOption func(*PipelineService)

// WithWriter persists results after each run.
func WithWriter(w ports.ResultWriterPort) PipelineOption {
	return func(s *PipelineService) { s.writerPort = w }
}

// WithMetrics publishes metrics after each run.
func WithMetrics(m ports.MetricsPort) PipelineOption {
	return func(s *PipelineService) { s.metricsPort = m }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l ports.Logger) PipelineOption {
	return func(s *PipelineService) { s.logger = l }
}

// NewPipelineService creates a pipeline service
func NewPipelineService(readerPort ports.TableReaderPort, fingerprintPort ports.InputFingerprintPort, opts ...PipelineOption) *PipelineService {
	s := &PipelineService{
		readerPort:      readerPort,
		fingerprintPort: fingerprintPort,
		logger:          logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest reads and normalizes every file in order. A schema error in any
// file aborts the whole ingestion.
func (s *PipelineService) Ingest(ctx context.Context, schema config.SchemaConfig, files []string) (*actionlog.Log, error) {
	return s.ingest(ctx, schema, files, s.logger)
}

func (s *PipelineService) ingest(ctx context.Context, schema config.SchemaConfig, files []string, logger ports.Logger) (*actionlog.Log, error) {
	if len(files) == 0 {
		return nil, errors.InvalidInput("no input files")
	}
	normalizer, err := ingest.NewNormalizer(schema, logger)
	if err != nil {
		return nil, err
	}

	tables := make([]*actionlog.Table, 0, len(files))
	for _, file := range files {
		table, err := s.readerPort.ReadTable(ctx, file)
		if err != nil {
			return nil, err
		}
		// Check each file as it arrives so a bad schema fails before
		// reading the rest.
		if err := normalizer.CheckSchema(table); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return normalizer.Normalize(tables...)
}

// Run executes the pipeline for one configuration. The result depends only
// on cfg and the file contents, apart from the manifest's run id and time.
func (s *PipelineService) Run(ctx context.Context, cfg config.PipelineConfig, files []string) (*run.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Step 1: Fingerprint inputs and open the manifest
	inputs := make(map[string]core.InputHash, len(files))
	for _, file := range files {
		hash, err := s.fingerprintPort.Fingerprint(ctx, file)
		if err != nil {
			return nil, err
		}
		inputs[file] = hash
	}
	manifest := run.NewRunManifest(core.NewRunID(), cfg.Name, cfg.Hash(), inputs, CodeVersion)
	logger := logging.WithRun(s.logger, manifest.RunID.String(), cfg.Name)
	logger.Infof("[Pipeline] starting run over %d file(s)", len(files))

	// Step 2: Ingestion Normalizer
	log, err := s.ingest(ctx, cfg.Schema, files, logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Cleaning Funnel and Duration Calculator
	outcome := funnel.New(cfg.Funnel, logger).Run(log.Records)
	if err := outcome.Report.Validate(); err != nil {
		return nil, errors.Wrap(errors.DataIntegrityError("funnel", err.Error()), "funnel report is inconsistent")
	}

	// Step 4: Summary Aggregator
	report, err := aggregate.NewAggregator(cfg.Summary, logger).Summarize(outcome.Sample, outcome.Activities)
	if err != nil {
		return nil, err
	}

	manifest.Complete(log.Report.RowsRead, log.Report.RowsDropped, outcome.Report)
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	return &run.Result{
		Manifest:   manifest,
		Ingest:     log.Report,
		Funnel:     outcome.Report,
		Sample:     outcome.Sample,
		Exclusions: outcome.Exclusions,
		Summary:    *report,
	}, nil
}

// Execute runs the pipeline, then hands the result to the configured writer
// and metrics ports. It returns the written paths.
func (s *PipelineService) Execute(ctx context.Context, cfg config.PipelineConfig, files []string) (*run.Result, []string, error) {
	result, err := s.Run(ctx, cfg, files)
	if err != nil {
		return nil, nil, err
	}

	var written []string
	if s.writerPort != nil {
		written, err = s.writerPort.WriteResult(ctx, result)
		if err != nil {
			return result, written, err
		}
	}
	if s.metricsPort != nil {
		if err := s.metricsPort.Observe(result); err != nil {
			return result, written, err
		}
	}
	return result, written, nil
}
