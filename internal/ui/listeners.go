package ui

import (
	"fmt"
	"sync"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/events"
)

type uiEventHandlers struct {
	onConnStatus func(events.ConnectionStatus)
	onFrame      func(events.RawFrame)
	onError      func(events.ErrorEvent)
}

// startUIEventListeners forwards bus events to handlers on the listener goroutine.
// Handlers are responsible for hopping onto the UI goroutine.
func startUIEventListeners(messageBus bus.MessageBus, handlers uiEventHandlers) func() {
	if messageBus == nil {
		appLogger().Debug("skipping UI event listeners: message bus is nil")

		return func() {}
	}

	topics := events.AllTopics()
	sub := messageBus.Subscribe(topics...)
	appLogger().Debug("subscribed to UI bus topics", "topics", topics)
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case raw, ok := <-sub:
				if !ok {
					appLogger().Debug("UI subscription closed")

					return
				}
				select {
				case <-done:
					return
				default:
				}
				dispatchUIEvent(raw, handlers)
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			appLogger().Debug("stopping UI event listeners")
			close(done)
			messageBus.Unsubscribe(sub, topics...)
		})
	}
}

func dispatchUIEvent(raw any, handlers uiEventHandlers) {
	switch ev := raw.(type) {
	case events.ConnectionStatus:
		if handlers.onConnStatus != nil {
			handlers.onConnStatus(ev)
		}
	case events.RawFrame:
		if handlers.onFrame != nil {
			handlers.onFrame(ev)
		}
	case events.ErrorEvent:
		if handlers.onError != nil {
			handlers.onError(ev)
		}
	default:
		appLogger().Debug("ignoring unexpected UI payload", "payload_type", fmt.Sprintf("%T", raw))
	}
}
