// Package tuning builds the line commands understood by the controller firmware.
package tuning

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	PIDPrefix    = "PID"
	ParamsPrefix = "PARAMS"
)

// PID holds the controller gains as typed by the operator.
type PID struct {
	Kp string
	Ki string
	Kd string
}

// Pose holds the target pose parameters as typed by the operator.
type Pose struct {
	Yaw      string
	Roll     string
	Distance string
}

// FieldError names the value that failed validation.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q is not a number", e.Field, e.Value)
}

func DefaultPID() PID {
	return PID{Kp: "1.0", Ki: "0.1", Kd: "0.01"}
}

func DefaultPose() Pose {
	return Pose{Yaw: "0.0", Roll: "0.0", Distance: "0.0"}
}

// Command renders "PID,kp,ki,kd\n". Values are sent as typed once they parse as finite numbers.
func (p PID) Command() (string, error) {
	return line(PIDPrefix,
		field{"kp", p.Kp},
		field{"ki", p.Ki},
		field{"kd", p.Kd},
	)
}

// Command renders "PARAMS,yaw,roll,dist\n".
func (p Pose) Command() (string, error) {
	return line(ParamsPrefix,
		field{"yaw", p.Yaw},
		field{"roll", p.Roll},
		field{"distance", p.Distance},
	)
}

// Describe strips the terminator for log output.
func Describe(command string) string {
	return strings.TrimRight(command, "\r\n")
}

type field struct {
	name  string
	value string
}

func line(prefix string, fields ...field) (string, error) {
	var b strings.Builder
	b.WriteString(prefix)
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if !isNumber(v) {
			return "", &FieldError{Field: f.name, Value: f.value}
		}
		b.WriteByte(',')
		b.WriteString(v)
	}
	b.WriteByte('\n')

	return b.String(), nil
}

func isNumber(v string) bool {
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}

	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
