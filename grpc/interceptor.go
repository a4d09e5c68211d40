package grpc

import (
	"context"
	"strconv"
	"strings"

	"github.com/arloliu/activity"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type config struct {
	namer activity.DisplayNamer
}

// Option configures the interceptors.
type Option func(*config)

// WithNamer sets how "Service/Method" operations become display names.
// Default: activity.DefaultNamer.
func WithNamer(n activity.DisplayNamer) Option {
	return func(c *config) {
		c.namer = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{namer: activity.DefaultNamer{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.namer == nil {
		cfg.namer = activity.DefaultNamer{}
	}

	return cfg
}

// UnaryServerInterceptor runs each unary call in a server scope started on source.
func UnaryServerInterceptor(source *activity.Source, opts ...Option) grpc.UnaryServerInterceptor {
	cfg := newConfig(opts)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, scope := startServer(ctx, source)
		defer scope.End()
		describe(scope, cfg, info.FullMethod)

		resp, err := handler(ctx, req)
		recordCode(scope, err)

		return resp, err
	}
}

// StreamServerInterceptor runs each streaming call in a server scope started
// on source. The handler sees the scope through ServerStream.Context.
func StreamServerInterceptor(source *activity.Source, opts ...Option) grpc.StreamServerInterceptor {
	cfg := newConfig(opts)

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, scope := startServer(ss.Context(), source)
		defer scope.End()
		describe(scope, cfg, info.FullMethod)

		err := handler(srv, &serverStream{ServerStream: ss, ctx: ctx})
		recordCode(scope, err)

		return err
	}
}

// UnaryClientInterceptor runs each outgoing unary call in a client scope
// started on source and sends the scope's trace context as metadata.
func UnaryClientInterceptor(source *activity.Source, opts ...Option) grpc.UnaryClientInterceptor {
	cfg := newConfig(opts)

	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		callOpts ...grpc.CallOption,
	) error {
		ctx, scope := source.Start(ctx, activity.WithKind(activity.KindClient))
		defer scope.End()
		describe(scope, cfg, method)

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		activity.Inject(ctx, metadataCarrier(md))

		err := invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, callOpts...)
		recordCode(scope, err)

		return err
	}
}

func startServer(ctx context.Context, source *activity.Source) (context.Context, *activity.Scope) {
	md, _ := metadata.FromIncomingContext(ctx)

	return source.StartWithResolver(ctx,
		activity.CarrierResolver, metadataCarrier(md),
		activity.WithKind(activity.KindServer),
	)
}

func describe(scope *activity.Scope, cfg config, fullMethod string) {
	if !scope.IsMaterialized() {
		return
	}
	service, method := splitFullMethod(fullMethod)
	scope.SetDisplayName(cfg.namer.Name(activity.NameRPC(service, method)))
	scope.SetTag("rpc.system", "grpc")
	scope.SetTag("rpc.service", service)
	scope.SetTag("rpc.method", method)
}

func recordCode(scope *activity.Scope, err error) {
	code := status.Code(err)
	scope.SetTag("rpc.grpc.status_code", strconv.Itoa(int(code)))
	scope.SetStatus(err)
}

// splitFullMethod splits "/package.Service/Method" into its service and method.
func splitFullMethod(fullMethod string) (string, string) {
	name := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i], name[i+1:]
	}

	return "", name
}

// serverStream overrides the context of a grpc.ServerStream.
type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *serverStream) Context() context.Context {
	return s.ctx
}
