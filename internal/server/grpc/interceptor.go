package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// publicPrefixes lists services callable without a token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			header = values[0]
		}
	}

	token, ok := auth.BearerToken(header)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	user, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		s.logger.Debug(ctx, "bearer token rejected", "method", info.FullMethod, "error", err)
		return nil, toStatus(err)
	}
	if err := auth.RequireActive(user); err != nil {
		return nil, toStatus(err)
	}

	return handler(auth.WithUser(ctx, user), req)
}
