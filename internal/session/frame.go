package session

import (
	"encoding/hex"
	"strings"
	"time"
)

// Frame is the payload returned by one receive call, or written by one send call.
type Frame struct {
	Transport string
	Resource  string
	Data      []byte
	At        time.Time
}

// Text renders the payload as UTF-8, dropping invalid sequences.
func (f Frame) Text() string {
	return strings.ToValidUTF8(string(f.Data), "")
}

func (f Frame) Hex() string {
	return strings.ToUpper(hex.EncodeToString(f.Data))
}

func (f Frame) Len() int {
	return len(f.Data)
}
