package main

import (
	"context"
	"testing"
)

func TestParseLaunchOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    launchOptions
		wantErr bool
	}{
		{name: "defaults", args: nil, want: launchOptions{StartHidden: false}},
		{name: "start hidden", args: []string{"--start-hidden"}, want: launchOptions{StartHidden: true}},
		{name: "unexpected positional", args: []string{"extra"}, wantErr: true},
		{name: "unknown flag", args: []string{"--nope"}, wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseLaunchOptions(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got nil", tc.name)
			}

			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestShutdownOnceRunsStepsInOrderOnce(t *testing.T) {
	var calls []string
	shutdown := shutdownOnce(
		func() { calls = append(calls, "cancel") },
		nil,
		func() { calls = append(calls, "close runtime") },
	)

	shutdown()
	shutdown()

	if len(calls) != 2 || calls[0] != "cancel" || calls[1] != "close runtime" {
		t.Fatalf("expected cancel then close runtime once, got %v", calls)
	}
}

func TestShutdownOnceCancelsContextBeforeClosing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ctxDoneAtClose bool
	shutdown := shutdownOnce(cancel, func() {
		ctxDoneAtClose = ctx.Err() != nil
	})

	shutdown()

	if !ctxDoneAtClose {
		t.Fatalf("expected context to be canceled before the runtime closes")
	}
}
