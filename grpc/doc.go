// Package grpc instruments gRPC clients and servers with activity scopes.
//
// # gRPC Server
//
// Install the server interceptors. Each call runs in a server scope whose
// parent comes from the traceparent metadata sent by the client:
//
//	src := activity.MustNewSource("orders.grpc.server")
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(activitygrpc.UnaryServerInterceptor(src)),
//	    grpc.StreamInterceptor(activitygrpc.StreamServerInterceptor(src)),
//	)
//
// # gRPC Client
//
// Install the client interceptor to propagate the trace context:
//
//	conn, err := grpc.NewClient(target,
//	    grpc.WithUnaryInterceptor(activitygrpc.UnaryClientInterceptor(src)),
//	)
package grpc
