package transport

import (
	"context"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/peer"
)

// The tls:// scheme tunnels the same frame payloads the tcp:// scheme
// writes to a socket through a gRPC bidirectional stream, one payload per
// gRPC message and without the version/length header, using
// gRPC purely as a TLS-terminated, multiplexed carrier. There is no
// .proto file: a custom "raw" codec registered with
// google.golang.org/grpc/encoding marshals/unmarshals a single byte slice
// as-is, and the streaming method is described by hand with a
// grpc.ServiceDesc/StreamDesc pair instead of protoc-generated stubs —
// the same technique generic gRPC proxies use to carry opaque payloads
// without knowing the wire schema in advance.

const rawCodecName = "raw"

func init() {
	encoding.RegisterCodec(rawCodec{})
}

// rawMessage is the only type the raw codec ever (un)marshals.
type rawMessage struct{ data []byte }

type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	return v.(*rawMessage).data, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	v.(*rawMessage).data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return rawCodecName }

const tunnelServiceName = "splinter.transport.Tunnel"
const tunnelMethodName = "Stream"
const tunnelFullMethod = "/" + tunnelServiceName + "/" + tunnelMethodName

// tunnelStreamDesc describes the single bidi-streaming RPC both the
// client and server sides use to move frame bytes.
var tunnelStreamDesc = grpc.StreamDesc{
	StreamName:    tunnelMethodName,
	ServerStreams: true,
	ClientStreams: true,
}

// rawStream is the common subset of grpc.ClientStream/grpc.ServerStream
// a grpcConnection needs — avoids holding two separate typed fields for
// what is, from this package's point of view, the same tunnel.
type rawStream interface {
	Context() context.Context
	SendMsg(m interface{}) error
	RecvMsg(m interface{}) error
}

// TunnelHandler is invoked once per inbound gRPC stream, given a
// Connection backed by that stream.
type TunnelHandler func(conn Connection)

// tunnelServiceDesc is the server-side registration, handling the single
// streaming method by handing the raw grpc.ServerStream to handleFn.
func tunnelServiceDesc(handleFn TunnelHandler) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: tunnelServiceName,
		HandlerType: (*interface{})(nil),
		Streams: []grpc.StreamDesc{
			{
				StreamName:    tunnelMethodName,
				ServerStreams: true,
				ClientStreams: true,
				Handler: func(srv interface{}, stream grpc.ServerStream) error {
					conn := &grpcConnection{stream: stream, remote: peerAddr(stream.Context())}
					handleFn(conn)
					return conn.lastErr()
				},
			},
		},
		Metadata: "splinter/transport/tunnel",
	}
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// grpcConnection adapts a gRPC stream (client or server side) to
// Connection, using the raw codec so each Send/Recv moves exactly one
// frame's payload with no further framing needed — gRPC's own
// length-delimited message framing on the wire replaces this package's
// writeFrame/readFrame for the tls:// scheme.
type grpcConnection struct {
	stream rawStream
	remote string

	mu  sync.Mutex
	err error
}

func (c *grpcConnection) Send(ctx context.Context, payload []byte) error {
	if err := c.stream.SendMsg(&rawMessage{data: payload}); err != nil {
		return errIO("send tunnel frame", err)
	}
	return nil
}

func (c *grpcConnection) Recv(ctx context.Context) ([]byte, error) {
	msg := &rawMessage{}
	err := c.stream.RecvMsg(msg)
	if err == io.EOF {
		return nil, errDisconnected("tunnel stream closed")
	}
	if err != nil {
		c.setErr(err)
		return nil, errIO("recv tunnel frame", err)
	}
	return msg.data, nil
}

func (c *grpcConnection) RemoteEndpoint() string { return c.remote }

func (c *grpcConnection) Disconnect() error {
	if cs, ok := c.stream.(grpc.ClientStream); ok {
		return cs.CloseSend()
	}
	return nil
}

func (c *grpcConnection) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *grpcConnection) lastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DialTunnel opens a tls:// connection to endpoint by establishing a
// gRPC channel and opening the single Tunnel stream on it.
func DialTunnel(ctx context.Context, endpoint string, creds credentials.TransportCredentials) (Connection, error) {
	cc, err := grpc.DialContext(ctx, endpoint, grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rawCodecName)))
	if err != nil {
		return nil, errIO("dial tunnel", err)
	}
	stream, err := cc.NewStream(ctx, &tunnelStreamDesc, tunnelFullMethod)
	if err != nil {
		return nil, errIO("open tunnel stream", err)
	}
	return &grpcConnection{stream: stream, remote: endpoint}, nil
}

// NewTunnelListener builds a *grpc.Server exposing the Tunnel service;
// handleFn is invoked once per accepted stream with a Connection wrapping
// it. The caller is responsible for calling Serve on a net.Listener.
func NewTunnelListener(creds credentials.TransportCredentials, handleFn TunnelHandler) *grpc.Server {
	srv := grpc.NewServer(grpc.Creds(creds))
	srv.RegisterService(tunnelServiceDesc(handleFn), nil)
	return srv
}
