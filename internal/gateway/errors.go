package gateway

import "errors"

var (
	// ErrUnknownGateway means the parameter set matched no known gateway.
	// Callers must treat this as a hard error, never default to a gateway.
	ErrUnknownGateway = errors.New("unknown_gateway")

	// ErrInvalidSignature is a security-relevant rejection; no order
	// mutation may follow it and callers surface only a generic message.
	ErrInvalidSignature = errors.New("invalid_signature")

	// ErrMissingFields means a notification lacks the fields its gateway
	// requires before verification can even be attempted.
	ErrMissingFields = errors.New("missing_required_fields")
)
