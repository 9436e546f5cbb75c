// Package handlers exposes the pipelines as HTTP invocations.
package handlers

import (
	"context"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/models"
)

// Version reported by the health endpoint
const Version = "1.0.0"

// Invoker runs one function invocation to completion
type Invoker interface {
	Invoke(ctx context.Context) models.Envelope
}

// Handler contains all HTTP handlers
type Handler struct {
	logger      *logging.Logger
	store       blobstore.Store
	ingest      Invoker
	analysis    Invoker
	bucket      string
	storageType string
}

// New creates a new handler instance
func New(logger *logging.Logger, store blobstore.Store, ingest, analysis Invoker, bucket, storageType string) *Handler {
	return &Handler{
		logger:      logger,
		store:       store,
		ingest:      ingest,
		analysis:    analysis,
		bucket:      bucket,
		storageType: storageType,
	}
}
