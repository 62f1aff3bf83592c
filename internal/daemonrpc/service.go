package daemonrpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "intakebot.daemon.v1.Daemon"

	connectMethod   = "/" + ServiceName + "/Connect"
	addMagnetMethod = "/" + ServiceName + "/AddMagnet"
	addFileMethod   = "/" + ServiceName + "/AddFile"
	listJobsMethod  = "/" + ServiceName + "/ListJobs"
)

// DaemonServer is the server API for the Daemon service.
type DaemonServer interface {
	Connect(context.Context, *ConnectRequest) (*ConnectResponse, error)
	AddMagnet(context.Context, *AddMagnetRequest) (*AddResponse, error)
	AddFile(context.Context, *AddFileRequest) (*AddResponse, error)
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DaemonServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Connect", Handler: connectHandler},
		{MethodName: "AddMagnet", Handler: addMagnetHandler},
		{MethodName: "AddFile", Handler: addFileHandler},
		{MethodName: "ListJobs", Handler: listJobsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "intakebot/daemon/v1",
}

func RegisterDaemonServer(s grpc.ServiceRegistrar, srv DaemonServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func connectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConnectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServer).Connect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: connectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServer).Connect(ctx, req.(*ConnectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func addMagnetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddMagnetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServer).AddMagnet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: addMagnetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServer).AddMagnet(ctx, req.(*AddMagnetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func addFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddFileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServer).AddFile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: addFileMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServer).AddFile(ctx, req.(*AddFileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listJobsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListJobsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServer).ListJobs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listJobsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServer).ListJobs(ctx, req.(*ListJobsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
