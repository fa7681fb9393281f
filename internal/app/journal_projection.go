package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/persistence"
)

// journalTrimEvery is the number of appends between two trims of the journal table.
const journalTrimEvery = 200

// StartJournalProjection persists bus events to the journal through the writer queue.
func StartJournalProjection(ctx context.Context, messageBus bus.MessageBus, writer *persistence.WriterQueue, repo *persistence.JournalRepo, maxLines int) {
	topics := events.AllTopics()
	sub := messageBus.Subscribe(topics...)

	go func() {
		defer messageBus.Unsubscribe(sub, topics...)

		appended := 0
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				entry, ok := JournalEntryFor(raw)
				if !ok {
					continue
				}
				writer.Enqueue("journal.append", func(ctx context.Context) error {
					return repo.Append(ctx, entry)
				})

				appended++
				if maxLines > 0 && appended%journalTrimEvery == 0 {
					writer.Enqueue("journal.trim", func(ctx context.Context) error {
						_, err := repo.Trim(ctx, maxLines)
						return err
					})
				}
			}
		}
	}()
}

// JournalEntryFor maps a bus event to a journal line. Unknown payloads are skipped.
func JournalEntryFor(raw any) (persistence.JournalEntry, bool) {
	switch ev := raw.(type) {
	case events.RawFrame:
		kind := persistence.EntryReceived
		if ev.Direction == events.DirectionOut {
			kind = persistence.EntrySent
		}
		return persistence.JournalEntry{
			Kind:      kind,
			Transport: ev.TransportName,
			Target:    ev.Target,
			Body:      ev.Text,
			Hex:       ev.Hex,
			At:        eventTime(ev.Timestamp),
		}, true
	case events.ErrorEvent:
		return persistence.JournalEntry{
			Kind:      persistence.EntryError,
			Transport: ev.TransportName,
			Target:    ev.Target,
			Body:      ev.Message,
			At:        eventTime(ev.Timestamp),
		}, true
	case events.ConnectionStatus:
		if ev.State == events.ConnectionStateConnecting {
			return persistence.JournalEntry{}, false
		}
		return persistence.JournalEntry{
			Kind:      persistence.EntryStatus,
			Transport: ev.TransportName,
			Target:    ev.Target,
			Body:      StatusLine(ev),
			At:        eventTime(ev.Timestamp),
		}, true
	default:
		return persistence.JournalEntry{}, false
	}
}

// LogLine renders a journal entry the way the log view shows it.
func LogLine(entry persistence.JournalEntry) string {
	stamp := entry.At.Local().Format(time.TimeOnly)
	switch entry.Kind {
	case persistence.EntrySent:
		return fmt.Sprintf("[%s] Sent: %s", stamp, printable(entry))
	case persistence.EntryError:
		return fmt.Sprintf("[%s] ERROR: %s", stamp, entry.Body)
	case persistence.EntryStatus:
		return fmt.Sprintf("[%s] %s", stamp, entry.Body)
	default:
		return fmt.Sprintf("[%s] %s", stamp, printable(entry))
	}
}

// printable falls back to hex when the payload carries no readable text.
func printable(entry persistence.JournalEntry) string {
	text := strings.TrimRight(entry.Body, "\r\n")
	if strings.TrimSpace(text) == "" && entry.Hex != "" {
		return "0x" + entry.Hex
	}

	return text
}

func eventTime(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now()
	}

	return ts
}
