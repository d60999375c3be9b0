package grpcx

import (
	"context"

	"github.com/clinicops/clinic-portal/libs/httpx"
	"github.com/google/uuid"
)

// RequestIDMetadataKey is the key used for request id propagation over gRPC metadata.
// Lowercase is required by gRPC metadata conventions.
const RequestIDMetadataKey = "x-request-id"

// The id is stored under the httpx key so loggers shared with the HTTP
// surface see one request id regardless of transport.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func NewRequestID() string {
	return uuid.NewString()
}
