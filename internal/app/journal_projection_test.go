package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/persistence"
)

func TestJournalEntryFor(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name     string
		raw      any
		wantOK   bool
		wantKind persistence.EntryKind
		wantBody string
	}{
		{
			name:     "received frame",
			raw:      events.RawFrame{Direction: events.DirectionIn, TransportName: "uart", Text: "OK", Hex: "4F4B", Timestamp: at},
			wantOK:   true,
			wantKind: persistence.EntryReceived,
			wantBody: "OK",
		},
		{
			name:     "sent frame",
			raw:      events.RawFrame{Direction: events.DirectionOut, TransportName: "can", Text: "PID,1,2,3\n", Timestamp: at},
			wantOK:   true,
			wantKind: persistence.EntrySent,
			wantBody: "PID,1,2,3\n",
		},
		{
			name:     "error",
			raw:      events.ErrorEvent{Message: "io receive: boom", Timestamp: at},
			wantOK:   true,
			wantKind: persistence.EntryError,
			wantBody: "io receive: boom",
		},
		{
			name:     "connected status",
			raw:      events.ConnectionStatus{State: events.ConnectionStateConnected, TransportName: "uart", Target: "/dev/ttyUSB0", Timestamp: at},
			wantOK:   true,
			wantKind: persistence.EntryStatus,
			wantBody: "Connected to UART /dev/ttyUSB0",
		},
		{name: "connecting status skipped", raw: events.ConnectionStatus{State: events.ConnectionStateConnecting}},
		{name: "unknown payload skipped", raw: "noise"},
	}

	for _, tc := range tests {
		entry, ok := JournalEntryFor(tc.raw)
		if ok != tc.wantOK {
			t.Fatalf("%s: expected ok=%v, got %v", tc.name, tc.wantOK, ok)
		}
		if !ok {
			continue
		}
		if entry.Kind != tc.wantKind || entry.Body != tc.wantBody {
			t.Fatalf("%s: unexpected entry %+v", tc.name, entry)
		}
		if !entry.At.Equal(at) {
			t.Fatalf("%s: expected timestamp %v, got %v", tc.name, at, entry.At)
		}
	}
}

func TestLogLine(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	tests := []struct {
		name  string
		entry persistence.JournalEntry
		want  string
	}{
		{name: "sent", entry: persistence.JournalEntry{Kind: persistence.EntrySent, Body: "PID,1.0,0.1,0.01\n", At: at}, want: "[03:04:05] Sent: PID,1.0,0.1,0.01"},
		{name: "received", entry: persistence.JournalEntry{Kind: persistence.EntryReceived, Body: "ACK", At: at}, want: "[03:04:05] ACK"},
		{name: "empty text", entry: persistence.JournalEntry{Kind: persistence.EntryReceived, Body: "", Hex: "FF", At: at}, want: "[03:04:05] 0xFF"},
		{name: "error", entry: persistence.JournalEntry{Kind: persistence.EntryError, Body: "timeout", At: at}, want: "[03:04:05] ERROR: timeout"},
		{name: "status", entry: persistence.JournalEntry{Kind: persistence.EntryStatus, Body: "Disconnected", At: at}, want: "[03:04:05] Disconnected"},
	}

	for _, tc := range tests {
		if got := LogLine(tc.entry); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestJournalProjectionPersistsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := persistence.NewJournalRepo(db)
	writer := persistence.NewWriterQueue(nil, 16)
	writer.Start(ctx)

	b := bus.New(nil)
	defer b.Close()
	StartJournalProjection(ctx, b, writer, repo, 1000)

	b.Publish(events.TopicFrameOut, events.RawFrame{Direction: events.DirectionOut, TransportName: "uart", Text: "PARAMS,0,0,0\n", Timestamp: time.Now()})
	b.Publish(events.TopicFrameIn, events.RawFrame{Direction: events.DirectionIn, TransportName: "uart", Text: "ACK", Timestamp: time.Now()})

	deadline := time.Now().Add(2 * time.Second)
	for {
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 journal rows, got %d", count)
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries[0].Kind != persistence.EntrySent || entries[1].Body != "ACK" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
