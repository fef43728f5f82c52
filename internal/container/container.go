package container

import (
	"fmt"
	"io"

	"github.com/apex/log"

	"assesstime/adapters/excel"
	"assesstime/adapters/export"
	"assesstime/adapters/metrics"
	"assesstime/app"
	"assesstime/internal/config"
	"assesstime/internal/logging"
)

// Outputs selects where a run's results go
type Outputs struct {
	Dir         string
	Workbook    bool
	MetricsFile string // empty disables the textfile
}

// Container holds all application dependencies for one invocation
type Container struct {
	Config *config.Config
	Logger *log.Logger

	// Adapters
	Reader  *excel.DataReader
	Writer  *export.Writer
	Metrics *metrics.Textfile

	// Services
	Pipeline *app.PipelineService
}

// New creates a new dependency injection container logging to logs.
func New(cfg *config.Config, logs io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config: cfg,
		Logger: logging.New(logs, cfg.Logging.Level),
	}, nil
}

// InitPipeline wires the reader for pipeline's schema and, when out is
// non-nil, the writer and metrics adapters.
func (c *Container) InitPipeline(pipeline config.PipelineConfig, out *Outputs) *app.PipelineService {
	c.Reader = excel.NewDataReader(excel.ReaderOptions{
		Sheet:  pipeline.Schema.Sheet,
		Comma:  pipeline.Schema.Comma(),
		Logger: c.Logger,
	})

	opts := []app.PipelineOption{app.WithLogger(c.Logger)}
	if out != nil {
		c.Writer = export.NewWriter(export.Options{Dir: out.Dir, Workbook: out.Workbook, Logger: c.Logger})
		opts = append(opts, app.WithWriter(c.Writer))
		if out.MetricsFile != "" {
			c.Metrics = metrics.NewTextfile(out.MetricsFile)
			opts = append(opts, app.WithMetrics(c.Metrics))
		}
	}

	c.Pipeline = app.NewPipelineService(c.Reader, c.Reader, opts...)
	c.Logger.Debugf("[Container] pipeline %q wired (outputs: %t)", pipeline.Name, out != nil)
	return c.Pipeline
}
