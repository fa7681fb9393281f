package app

import (
	"sync"
	"time"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/session"
)

// BusListener republishes session callbacks as bus events.
type BusListener struct {
	bus bus.MessageBus

	mu        sync.Mutex
	transport string
	target    string
}

func NewBusListener(messageBus bus.MessageBus) *BusListener {
	return &BusListener{bus: messageBus}
}

func (l *BusListener) OnDataReceived(frame session.Frame) {
	l.bus.Publish(events.TopicFrameIn, rawFrame(events.DirectionIn, frame))
}

func (l *BusListener) OnDataSent(frame session.Frame) {
	l.bus.Publish(events.TopicFrameOut, rawFrame(events.DirectionOut, frame))
}

func (l *BusListener) OnError(err error) {
	if err == nil {
		return
	}

	l.mu.Lock()
	name, target := l.transport, l.target
	l.mu.Unlock()

	l.bus.Publish(events.TopicError, events.ErrorEvent{
		TransportName: name,
		Target:        target,
		Message:       err.Error(),
		Timestamp:     time.Now(),
	})
}

func (l *BusListener) OnStateChanged(status session.Status) {
	l.mu.Lock()
	l.transport, l.target = status.Transport, status.Resource
	l.mu.Unlock()

	l.bus.Publish(events.TopicConnStatus, ConnectionStatusFromSession(status))
}

func rawFrame(dir events.Direction, frame session.Frame) events.RawFrame {
	return events.RawFrame{
		Direction:     dir,
		TransportName: frame.Transport,
		Target:        frame.Resource,
		Text:          frame.Text(),
		Hex:           frame.Hex(),
		Len:           frame.Len(),
		Timestamp:     frame.At,
	}
}
