package context

import (
	"io"

	"github.com/netrixframework/qlearn/config"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/metrics"
	"github.com/netrixframework/qlearn/report"
	"github.com/netrixframework/qlearn/store"
)

// RootContext stores what the commands and services share for a run
type RootContext struct {
	// Config an instance of the configuration object
	Config *config.Config
	// Store where value tables are persisted
	Store store.Store
	// Metrics observes the trainer and is served by the API server
	Metrics *metrics.Metrics
	// Recorder keeps the reward series of the latest run
	Recorder *report.Recorder
	// Logger for logging purposes
	Logger *log.Logger
}

// NewRootContext creates an instance of the RootContext from the configuration
func NewRootContext(config *config.Config, logger *log.Logger) (*RootContext, error) {
	s, err := store.New(config.Store)
	if err != nil {
		return nil, err
	}
	return &RootContext{
		Config:   config,
		Store:    s,
		Metrics:  metrics.NewMetrics(),
		Recorder: report.NewRecorder(),
		Logger:   logger,
	}, nil
}

// Stop releases the store connection if it holds one
func (c *RootContext) Stop() {
	if closer, ok := c.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close store")
		}
	}
}
