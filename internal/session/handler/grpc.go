package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/platform/rbac"
	sessiondomain "libmanage/backend/internal/session/domain"
	sessionservice "libmanage/backend/internal/session/service"
)

// SessionLookupServiceName is the fully qualified gRPC service name.
const SessionLookupServiceName = "libmanage.session.v1.SessionLookup"

const getSessionMethod = "/" + SessionLookupServiceName + "/GetSession"

// Lookup resolves a session id to its state and owner.
type Lookup interface {
	Get(ctx context.Context, sessionID string) (*sessionservice.LookupResult, error)
}

// SessionLookupServer is the server API for the SessionLookup service.
type SessionLookupServer interface {
	GetSession(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// Server implements SessionLookupServer over the session registry.
type Server struct {
	lookup Lookup
}

// NewServer returns a new SessionLookup gRPC server. If lookup is nil, all RPCs return Unimplemented.
func NewServer(lookup Lookup) *Server {
	return &Server{lookup: lookup}
}

// GetSession returns {sessionId, enabled, expiresAt, account} for the given session id.
// Admins may read any session; other callers only their own, and see NotFound otherwise.
func (s *Server) GetSession(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s.lookup == nil {
		return nil, status.Error(codes.Unimplemented, "method GetSession not implemented")
	}
	p, err := rbac.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "session id required")
	}
	res, err := s.lookup.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sessiondomain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "session not found")
		}
		return nil, status.Error(codes.Internal, "failed to load session")
	}
	if !visibleTo(p, res) {
		return nil, status.Error(codes.NotFound, "session not found")
	}
	out, err := lookupStruct(res)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode session")
	}
	return out, nil
}

// visibleTo reports whether p may read res.
func visibleTo(p *authn.Principal, res *sessionservice.LookupResult) bool {
	if p.IsAdmin() {
		return true
	}
	return res.Account != nil && p.AccountID != "" && res.Account.ID == p.AccountID
}

func lookupStruct(res *sessionservice.LookupResult) (*structpb.Struct, error) {
	fields := map[string]any{
		"sessionId": res.SessionID,
		"enabled":   res.Enabled,
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if a := res.Account; a != nil {
		roles := make([]any, 0, len(a.Roles))
		for _, r := range a.Roles {
			roles = append(roles, r)
		}
		fields["account"] = map[string]any{
			"id":            a.ID,
			"email":         a.Email,
			"fullName":      a.FullName,
			"phone":         a.Phone,
			"roles":         roles,
			"emailVerified": a.EmailVerified,
			"phoneVerified": a.PhoneVerified,
		}
	}
	return structpb.NewStruct(fields)
}

// RegisterSessionLookupServer registers srv on s.
func RegisterSessionLookupServer(s grpc.ServiceRegistrar, srv SessionLookupServer) {
	s.RegisterService(&sessionLookupServiceDesc, srv)
}

func getSessionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionLookupServer).GetSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSessionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionLookupServer).GetSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var sessionLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionLookupServiceName,
	HandlerType: (*SessionLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSession", Handler: getSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "libmanage/session/v1/session_lookup.proto",
}

// SessionLookupClient is the client API for the SessionLookup service.
type SessionLookupClient interface {
	GetSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionLookupClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionLookupClient returns a client bound to cc.
func NewSessionLookupClient(cc grpc.ClientConnInterface) SessionLookupClient {
	return &sessionLookupClient{cc: cc}
}

func (c *sessionLookupClient) GetSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSessionMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
