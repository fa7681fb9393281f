package tuning

import (
	"errors"
	"testing"
)

func TestPIDCommand(t *testing.T) {
	tests := []struct {
		name    string
		pid     PID
		want    string
		wantErr string
	}{
		{name: "defaults", pid: DefaultPID(), want: "PID,1.0,0.1,0.01\n"},
		{name: "trims and keeps operator text", pid: PID{Kp: " 2 ", Ki: "0.50", Kd: "-1e-3"}, want: "PID,2,0.50,-1e-3\n"},
		{name: "empty kd", pid: PID{Kp: "1", Ki: "1", Kd: ""}, wantErr: "kd"},
		{name: "text gain", pid: PID{Kp: "fast", Ki: "1", Kd: "1"}, wantErr: "kp"},
		{name: "nan gain", pid: PID{Kp: "1", Ki: "NaN", Kd: "1"}, wantErr: "ki"},
		{name: "comma injection", pid: PID{Kp: "1,2", Ki: "1", Kd: "1"}, wantErr: "kp"},
	}

	for _, tc := range tests {
		got, err := tc.pid.Command()
		if tc.wantErr != "" {
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != tc.wantErr {
				t.Fatalf("%s: expected field error for %s, got %v", tc.name, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestPoseCommand(t *testing.T) {
	got, err := Pose{Yaw: "90", Roll: "-4.5", Distance: "0.25"}.Command()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "PARAMS,90,-4.5,0.25\n" {
		t.Fatalf("unexpected command %q", got)
	}

	if _, err := (Pose{Yaw: "left", Roll: "0", Distance: "0"}).Command(); err == nil {
		t.Fatalf("expected error for non-numeric yaw")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe("PID,1,2,3\r\n"); got != "PID,1,2,3" {
		t.Fatalf("unexpected description %q", got)
	}
}
