package relay

import "google.golang.org/grpc"

const (
	grpcServiceName = "capsync.v1.Relay"
	grpcStreamName  = "Stream"
	grpcStreamPath  = "/" + grpcServiceName + "/" + grpcStreamName
)

// StreamServer is implemented by relays that accept gRPC clients. Every
// message in both directions is a google.protobuf.StringValue payload.
type StreamServer interface {
	Stream(stream grpc.ServerStream) error
}

// ServiceDesc describes capsync.v1.Relay for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: grpcServiceName,
	HandlerType: (*StreamServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    grpcStreamName,
			Handler:       streamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "capsync/v1/relay.proto",
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(StreamServer).Stream(stream)
}
