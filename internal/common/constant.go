// Package common contains shared constants and sentinel errors used across
// gophcrud components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer credential.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only authorization scheme accepted by the API.
const BearerScheme = "Bearer"

// TokenTypeBearer is reported to clients in issued token responses.
const TokenTypeBearer = "bearer"
