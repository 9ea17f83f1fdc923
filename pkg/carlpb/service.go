package carlpb

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "opendut.carl.v1.Carl"

// CarlServer is implemented by the CARL-side RPC handler.
type CarlServer interface {
	StorePeer(context.Context, *StorePeerRequest) (*StorePeerResponse, error)
	GetPeer(context.Context, *GetPeerRequest) (*GetPeerResponse, error)
	ListPeers(context.Context, *ListPeersRequest) (*ListPeersResponse, error)
	DeletePeer(context.Context, *DeletePeerRequest) (*DeletePeerResponse, error)
	GeneratePeerSetup(context.Context, *GeneratePeerSetupRequest) (*GeneratePeerSetupResponse, error)
	GenerateCleoSetup(context.Context, *GenerateCleoSetupRequest) (*GenerateCleoSetupResponse, error)

	StoreCluster(context.Context, *StoreClusterRequest) (*StoreClusterResponse, error)
	GetCluster(context.Context, *GetClusterRequest) (*GetClusterResponse, error)
	ListClusters(context.Context, *ListClustersRequest) (*ListClustersResponse, error)
	DeleteCluster(context.Context, *DeleteClusterRequest) (*DeleteClusterResponse, error)
	DeployCluster(context.Context, *DeployClusterRequest) (*DeployClusterResponse, error)
	UndeployCluster(context.Context, *UndeployClusterRequest) (*UndeployClusterResponse, error)

	PeerStream(Carl_PeerStreamServer) error

	ObservePeers(*ObserveRequest, Carl_ObserveEventsServer) error
	ObserveClusters(*ObserveRequest, Carl_ObserveEventsServer) error
	ObserveConnections(*ObserveRequest, Carl_ObserveEventsServer) error

	WaitForPeersOnline(*WaitForPeersOnlineRequest, Carl_WaitForPeersOnlineServer) error
}

// CarlClient is implemented by the client stub returned from NewCarlClient.
type CarlClient interface {
	StorePeer(ctx context.Context, in *StorePeerRequest, opts ...grpc.CallOption) (*StorePeerResponse, error)
	GetPeer(ctx context.Context, in *GetPeerRequest, opts ...grpc.CallOption) (*GetPeerResponse, error)
	ListPeers(ctx context.Context, in *ListPeersRequest, opts ...grpc.CallOption) (*ListPeersResponse, error)
	DeletePeer(ctx context.Context, in *DeletePeerRequest, opts ...grpc.CallOption) (*DeletePeerResponse, error)
	GeneratePeerSetup(ctx context.Context, in *GeneratePeerSetupRequest, opts ...grpc.CallOption) (*GeneratePeerSetupResponse, error)
	GenerateCleoSetup(ctx context.Context, in *GenerateCleoSetupRequest, opts ...grpc.CallOption) (*GenerateCleoSetupResponse, error)

	StoreCluster(ctx context.Context, in *StoreClusterRequest, opts ...grpc.CallOption) (*StoreClusterResponse, error)
	GetCluster(ctx context.Context, in *GetClusterRequest, opts ...grpc.CallOption) (*GetClusterResponse, error)
	ListClusters(ctx context.Context, in *ListClustersRequest, opts ...grpc.CallOption) (*ListClustersResponse, error)
	DeleteCluster(ctx context.Context, in *DeleteClusterRequest, opts ...grpc.CallOption) (*DeleteClusterResponse, error)
	DeployCluster(ctx context.Context, in *DeployClusterRequest, opts ...grpc.CallOption) (*DeployClusterResponse, error)
	UndeployCluster(ctx context.Context, in *UndeployClusterRequest, opts ...grpc.CallOption) (*UndeployClusterResponse, error)

	PeerStream(ctx context.Context, opts ...grpc.CallOption) (Carl_PeerStreamClient, error)

	ObservePeers(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error)
	ObserveClusters(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error)
	ObserveConnections(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error)

	WaitForPeersOnline(ctx context.Context, in *WaitForPeersOnlineRequest, opts ...grpc.CallOption) (Carl_WaitForPeersOnlineClient, error)
}

type carlClient struct {
	cc *grpc.ClientConn
}

func NewCarlClient(cc *grpc.ClientConn) CarlClient {
	return &carlClient{cc: cc}
}

func (c *carlClient) StorePeer(ctx context.Context, in *StorePeerRequest, opts ...grpc.CallOption) (*StorePeerResponse, error) {
	out := new(StorePeerResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/StorePeer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) GetPeer(ctx context.Context, in *GetPeerRequest, opts ...grpc.CallOption) (*GetPeerResponse, error) {
	out := new(GetPeerResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetPeer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) ListPeers(ctx context.Context, in *ListPeersRequest, opts ...grpc.CallOption) (*ListPeersResponse, error) {
	out := new(ListPeersResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListPeers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) DeletePeer(ctx context.Context, in *DeletePeerRequest, opts ...grpc.CallOption) (*DeletePeerResponse, error) {
	out := new(DeletePeerResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/DeletePeer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) GeneratePeerSetup(ctx context.Context, in *GeneratePeerSetupRequest, opts ...grpc.CallOption) (*GeneratePeerSetupResponse, error) {
	out := new(GeneratePeerSetupResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GeneratePeerSetup", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) GenerateCleoSetup(ctx context.Context, in *GenerateCleoSetupRequest, opts ...grpc.CallOption) (*GenerateCleoSetupResponse, error) {
	out := new(GenerateCleoSetupResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GenerateCleoSetup", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) StoreCluster(ctx context.Context, in *StoreClusterRequest, opts ...grpc.CallOption) (*StoreClusterResponse, error) {
	out := new(StoreClusterResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/StoreCluster", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) GetCluster(ctx context.Context, in *GetClusterRequest, opts ...grpc.CallOption) (*GetClusterResponse, error) {
	out := new(GetClusterResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetCluster", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) ListClusters(ctx context.Context, in *ListClustersRequest, opts ...grpc.CallOption) (*ListClustersResponse, error) {
	out := new(ListClustersResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListClusters", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) DeleteCluster(ctx context.Context, in *DeleteClusterRequest, opts ...grpc.CallOption) (*DeleteClusterResponse, error) {
	out := new(DeleteClusterResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/DeleteCluster", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) DeployCluster(ctx context.Context, in *DeployClusterRequest, opts ...grpc.CallOption) (*DeployClusterResponse, error) {
	out := new(DeployClusterResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/DeployCluster", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *carlClient) UndeployCluster(ctx context.Context, in *UndeployClusterRequest, opts ...grpc.CallOption) (*UndeployClusterResponse, error) {
	out := new(UndeployClusterResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/UndeployCluster", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Carl_PeerStreamClient is the EDGAR-side handle for the bidirectional
// configuration stream.
type Carl_PeerStreamClient interface {
	Send(*PeerStreamUp) error
	Recv() (*PeerStreamDown, error)
	grpc.ClientStream
}

type carlPeerStreamClient struct{ grpc.ClientStream }

func (c *carlClient) PeerStream(ctx context.Context, opts ...grpc.CallOption) (Carl_PeerStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &_Carl_serviceDesc.Streams[0], "/"+serviceName+"/PeerStream", opts...)
	if err != nil {
		return nil, err
	}
	return &carlPeerStreamClient{stream}, nil
}

func (x *carlPeerStreamClient) Send(m *PeerStreamUp) error { return x.ClientStream.SendMsg(m) }
func (x *carlPeerStreamClient) Recv() (*PeerStreamDown, error) {
	m := new(PeerStreamDown)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Carl_ObserveEventsClient is shared by every server-streaming observer
// subscription (peers, clusters, connections carry the same ObserveEvent
// envelope).
type Carl_ObserveEventsClient interface {
	Recv() (*ObserveEvent, error)
	grpc.ClientStream
}

type carlObserveEventsClient struct{ grpc.ClientStream }

func (x *carlObserveEventsClient) Recv() (*ObserveEvent, error) {
	m := new(ObserveEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *carlClient) observe(ctx context.Context, streamIndex int, method string, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &_Carl_serviceDesc.Streams[streamIndex], "/"+serviceName+"/"+method, opts...)
	if err != nil {
		return nil, err
	}
	x := &carlObserveEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *carlClient) ObservePeers(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error) {
	return c.observe(ctx, 1, "ObservePeers", in, opts...)
}

func (c *carlClient) ObserveClusters(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error) {
	return c.observe(ctx, 2, "ObserveClusters", in, opts...)
}

func (c *carlClient) ObserveConnections(ctx context.Context, in *ObserveRequest, opts ...grpc.CallOption) (Carl_ObserveEventsClient, error) {
	return c.observe(ctx, 3, "ObserveConnections", in, opts...)
}

// Carl_WaitForPeersOnlineClient streams Pending/Success/Failure updates for
// one wait_for_peers_online call.
type Carl_WaitForPeersOnlineClient interface {
	Recv() (*WaitForPeersOnlineResponse, error)
	grpc.ClientStream
}

type carlWaitForPeersOnlineClient struct{ grpc.ClientStream }

func (x *carlWaitForPeersOnlineClient) Recv() (*WaitForPeersOnlineResponse, error) {
	m := new(WaitForPeersOnlineResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *carlClient) WaitForPeersOnline(ctx context.Context, in *WaitForPeersOnlineRequest, opts ...grpc.CallOption) (Carl_WaitForPeersOnlineClient, error) {
	stream, err := c.cc.NewStream(ctx, &_Carl_serviceDesc.Streams[4], "/"+serviceName+"/WaitForPeersOnline", opts...)
	if err != nil {
		return nil, err
	}
	x := &carlWaitForPeersOnlineClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Carl_PeerStreamServer is the CARL-side handle for a single connected
// peer's bidirectional stream.
type Carl_PeerStreamServer interface {
	Send(*PeerStreamDown) error
	Recv() (*PeerStreamUp, error)
	grpc.ServerStream
}

type carlPeerStreamServer struct{ grpc.ServerStream }

func (x *carlPeerStreamServer) Send(m *PeerStreamDown) error { return x.ServerStream.SendMsg(m) }
func (x *carlPeerStreamServer) Recv() (*PeerStreamUp, error) {
	m := new(PeerStreamUp)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Carl_ObserveEventsServer is the CARL-side handle for one observer's
// server-streaming subscription.
type Carl_ObserveEventsServer interface {
	Send(*ObserveEvent) error
	grpc.ServerStream
}

type carlObserveEventsServer struct{ grpc.ServerStream }

func (x *carlObserveEventsServer) Send(m *ObserveEvent) error { return x.ServerStream.SendMsg(m) }

// Carl_WaitForPeersOnlineServer is the CARL-side handle for one
// wait_for_peers_online subscription.
type Carl_WaitForPeersOnlineServer interface {
	Send(*WaitForPeersOnlineResponse) error
	grpc.ServerStream
}

type carlWaitForPeersOnlineServer struct{ grpc.ServerStream }

func (x *carlWaitForPeersOnlineServer) Send(m *WaitForPeersOnlineResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _Carl_StorePeer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StorePeerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).StorePeer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/StorePeer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).StorePeer(ctx, req.(*StorePeerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_GetPeer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPeerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).GetPeer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetPeer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).GetPeer(ctx, req.(*GetPeerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_ListPeers_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListPeersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).ListPeers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListPeers"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).ListPeers(ctx, req.(*ListPeersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_DeletePeer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeletePeerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).DeletePeer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/DeletePeer"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).DeletePeer(ctx, req.(*DeletePeerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_GeneratePeerSetup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GeneratePeerSetupRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).GeneratePeerSetup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GeneratePeerSetup"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).GeneratePeerSetup(ctx, req.(*GeneratePeerSetupRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_GenerateCleoSetup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GenerateCleoSetupRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).GenerateCleoSetup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GenerateCleoSetup"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).GenerateCleoSetup(ctx, req.(*GenerateCleoSetupRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_StoreCluster_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StoreClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).StoreCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/StoreCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).StoreCluster(ctx, req.(*StoreClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_GetCluster_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).GetCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).GetCluster(ctx, req.(*GetClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_ListClusters_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListClustersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).ListClusters(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListClusters"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).ListClusters(ctx, req.(*ListClustersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_DeleteCluster_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).DeleteCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/DeleteCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).DeleteCluster(ctx, req.(*DeleteClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_DeployCluster_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeployClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).DeployCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/DeployCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).DeployCluster(ctx, req.(*DeployClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_UndeployCluster_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UndeployClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarlServer).UndeployCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/UndeployCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CarlServer).UndeployCluster(ctx, req.(*UndeployClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Carl_PeerStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(CarlServer).PeerStream(&carlPeerStreamServer{stream})
}

func _Carl_ObservePeers_Handler(srv interface{}, stream grpc.ServerStream) error {
	in := new(ObserveRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CarlServer).ObservePeers(in, &carlObserveEventsServer{stream})
}

func _Carl_ObserveClusters_Handler(srv interface{}, stream grpc.ServerStream) error {
	in := new(ObserveRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CarlServer).ObserveClusters(in, &carlObserveEventsServer{stream})
}

func _Carl_ObserveConnections_Handler(srv interface{}, stream grpc.ServerStream) error {
	in := new(ObserveRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CarlServer).ObserveConnections(in, &carlObserveEventsServer{stream})
}

func _Carl_WaitForPeersOnline_Handler(srv interface{}, stream grpc.ServerStream) error {
	in := new(WaitForPeersOnlineRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CarlServer).WaitForPeersOnline(in, &carlWaitForPeersOnlineServer{stream})
}

var _Carl_serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CarlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StorePeer", Handler: _Carl_StorePeer_Handler},
		{MethodName: "GetPeer", Handler: _Carl_GetPeer_Handler},
		{MethodName: "ListPeers", Handler: _Carl_ListPeers_Handler},
		{MethodName: "DeletePeer", Handler: _Carl_DeletePeer_Handler},
		{MethodName: "GeneratePeerSetup", Handler: _Carl_GeneratePeerSetup_Handler},
		{MethodName: "GenerateCleoSetup", Handler: _Carl_GenerateCleoSetup_Handler},
		{MethodName: "StoreCluster", Handler: _Carl_StoreCluster_Handler},
		{MethodName: "GetCluster", Handler: _Carl_GetCluster_Handler},
		{MethodName: "ListClusters", Handler: _Carl_ListClusters_Handler},
		{MethodName: "DeleteCluster", Handler: _Carl_DeleteCluster_Handler},
		{MethodName: "DeployCluster", Handler: _Carl_DeployCluster_Handler},
		{MethodName: "UndeployCluster", Handler: _Carl_UndeployCluster_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "PeerStream", Handler: _Carl_PeerStream_Handler, ServerStreams: true, ClientStreams: true},
		{StreamName: "ObservePeers", Handler: _Carl_ObservePeers_Handler, ServerStreams: true},
		{StreamName: "ObserveClusters", Handler: _Carl_ObserveClusters_Handler, ServerStreams: true},
		{StreamName: "ObserveConnections", Handler: _Carl_ObserveConnections_Handler, ServerStreams: true},
		{StreamName: "WaitForPeersOnline", Handler: _Carl_WaitForPeersOnline_Handler, ServerStreams: true},
	},
	Metadata: "carlpb/carl.proto",
}

func RegisterCarlServer(s *grpc.Server, srv CarlServer) {
	s.RegisterService(&_Carl_serviceDesc, srv)
}
