package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts a service error into a gRPC status. Unknown errors are
// reported as Internal without their text.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrPrincipalNotFound):
		return status.Error(codes.Unauthenticated, "could not validate credentials")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "incorrect email or password")
	case errors.Is(err, common.ErrInactiveAccount):
		return status.Error(codes.FailedPrecondition, "inactive user")
	case errors.Is(err, common.ErrInsufficientPrivilege), errors.Is(err, common.ErrSuperuserSelfDelete),
		errors.Is(err, common.ErrRegistrationClosed):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrIncorrectPassword), errors.Is(err, common.ErrSamePassword):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
