package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	accountServiceName = "gophcrud.v1.Account"
	whoAmIMethod       = "/" + accountServiceName + "/WhoAmI"
)

// accountServer is the authenticated account service. Messages are the
// protobuf well-known types, so the service is declared by hand instead of
// generated.
type accountServer interface {
	WhoAmI(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

type accountService struct{}

// WhoAmI returns the caller placed in ctx by accessTokenInterceptor.
func (accountService) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	var fullName any
	if user.FullName != nil {
		fullName = *user.FullName
	}
	return structpb.NewStruct(map[string]any{
		"id":           user.ID.String(),
		"email":        user.Email,
		"full_name":    fullName,
		"is_active":    user.IsActive,
		"is_superuser": user.IsSuperuser,
	})
}

func whoAmIHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(accountServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: whoAmIMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(accountServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: accountServiceName,
	HandlerType: (*accountServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func registerAccountServer(s grpc.ServiceRegistrar, srv accountServer) {
	s.RegisterService(&accountServiceDesc, srv)
}
