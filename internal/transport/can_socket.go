package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// canSendTimeout bounds one frame write so a saturated tx queue surfaces as a timeout.
const canSendTimeout = time.Second

// socketCAN adapts a SocketCAN raw connection to canSocket.
type socketCAN struct {
	conn      net.Conn
	tx        *socketcan.Transmitter
	closeOnce sync.Once
	closeErr  error
}

// openSocketCAN dials a raw CAN socket on channel. The bit rate belongs to the netdev
// (`ip link set can0 up type can bitrate 500000`) and is only used in the hint below.
func openSocketCAN(ctx context.Context, channel string, bitRate int) (canSocket, error) {
	iface, err := net.InterfaceByName(channel)
	if err != nil {
		return nil, fmt.Errorf("lookup can interface: %w", err)
	}
	if iface.Flags&net.FlagUp == 0 {
		return nil, fmt.Errorf("can interface is down, bring it up with: ip link set %s up type can bitrate %d", channel, bitRate)
	}

	conn, err := socketcan.DialContext(ctx, "can", channel)
	if err != nil {
		return nil, fmt.Errorf("dial socketcan: %w", err)
	}

	return newSocketCAN(conn), nil
}

func newSocketCAN(conn net.Conn) *socketCAN {
	return &socketCAN{conn: conn, tx: socketcan.NewTransmitter(conn)}
}

func (s *socketCAN) WriteFrame(ctx context.Context, f can.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, canSendTimeout)
	defer cancel()

	return s.tx.TransmitFrame(ctx, f)
}

func (s *socketCAN) ReadFrame(timeout time.Duration) (can.Frame, bool, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(max(timeout, time.Millisecond))); err != nil {
		return can.Frame{}, false, fmt.Errorf("set can read deadline: %w", err)
	}

	// A receiver stops for good after a deadline error, so every read gets a fresh one.
	rx := socketcan.NewReceiver(s.conn)
	if !rx.Receive() {
		err := rx.Err()
		switch {
		case err == nil:
			return can.Frame{}, false, io.EOF
		case errors.Is(err, os.ErrDeadlineExceeded):
			return can.Frame{}, false, nil
		default:
			return can.Frame{}, false, err
		}
	}
	if rx.HasErrorFrame() {
		return can.Frame{}, false, nil
	}
	f := rx.Frame()
	if f.IsRemote {
		return can.Frame{}, false, nil
	}

	return f, true, nil
}

func (s *socketCAN) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})

	return s.closeErr
}

func isCANWriteTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) || isCANQueueFull(err)
}
