package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests and
	// as gRPC metadata (lower-cased by grpc-go).
	AuthorizationHeaderName = "authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"
)
