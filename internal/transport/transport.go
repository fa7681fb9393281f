package transport

import (
	"context"
	"time"
)

// Kind selects one of the supported buses.
type Kind string

const (
	KindUART  Kind = "uart"
	KindRS485 Kind = "rs485"
	KindCAN   Kind = "can"
	KindI2C   Kind = "i2c"
)

// Kinds lists supported buses in presentation order.
func Kinds() []Kind {
	return []Kind{KindUART, KindRS485, KindCAN, KindI2C}
}

// DefaultReceiveTimeout bounds one Receive call on buses without a configured read timeout.
const DefaultReceiveTimeout = time.Second

// Transport is one physical or logical link. Send and Receive are only valid while connected.
type Transport interface {
	Name() string
	Resource() string
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	Send(ctx context.Context, payload []byte) error
	// Receive returns nil, nil when timeout elapses without data. A non-positive timeout
	// selects the transport's configured read timeout.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
}
