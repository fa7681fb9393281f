package transport

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Recognised connection parameter keys.
const (
	ParamPort           = "port"
	ParamBaudRate       = "baudRate"
	ParamTimeoutSeconds = "timeoutSeconds"
	ParamReadBytes      = "readBytes"
	ParamChannel        = "channel"
	ParamBitRate        = "bitRate"
	ParamArbitrationID  = "arbitrationId"
	ParamBusNumber      = "busNumber"
	ParamDeviceAddress  = "deviceAddress"
	ParamRegister       = "register"
)

const (
	DefaultCANBitRate       = 500000
	DefaultCANArbitrationID = 0x123
	DefaultSerialTimeout    = time.Second

	maxI2CAddress       = 0x7F
	maxI2CRegister      = 0xFF
	maxCANStdID         = 0x7FF
	maxI2CBlockLen      = 32
	defaultI2CReadBytes = 1
)

// Params is the plain key/value connection surface used by the presentation layer.
type Params map[string]string

func (p Params) get(key string) string {
	if p == nil {
		return ""
	}

	return strings.TrimSpace(p[key])
}

// Config is a sealed union of per-bus connection parameters.
type Config interface {
	Kind() Kind
	Resource() string
	sealed()
}

// SerialConfig describes a UART or RS485 link.
type SerialConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
	// ReadSize switches receive from line mode to a bounded byte read when positive.
	ReadSize int
}

type UARTConfig struct{ SerialConfig }

type RS485Config struct{ SerialConfig }

type CANConfig struct {
	Channel       string
	BitRate       int
	ArbitrationID uint32
}

type I2CConfig struct {
	BusNumber     int
	DeviceAddress uint8
	// Register enables addressed block access when HasRegister is set.
	Register    uint8
	HasRegister bool
	ReadSize    int
}

func (UARTConfig) Kind() Kind  { return KindUART }
func (RS485Config) Kind() Kind { return KindRS485 }
func (CANConfig) Kind() Kind   { return KindCAN }
func (I2CConfig) Kind() Kind   { return KindI2C }

func (c SerialConfig) Resource() string { return c.Port }
func (c CANConfig) Resource() string    { return c.Channel }
func (c I2CConfig) Resource() string {
	return fmt.Sprintf("i2c-%d@0x%02x", c.BusNumber, c.DeviceAddress)
}

func (UARTConfig) sealed()  {}
func (RS485Config) sealed() {}
func (CANConfig) sealed()   {}
func (I2CConfig) sealed()   {}

// ParseKind accepts protocol names case-insensitively ("UART", "rs485", ...).
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds() {
		if kind == known {
			return kind, nil
		}
	}

	return "", &ConfigError{Field: "protocol", Value: raw, Err: errors.New("unsupported protocol")}
}

// ParseConfig validates params for kind. It never touches hardware.
func ParseConfig(kind Kind, params Params) (Config, error) {
	switch kind {
	case KindUART:
		sc, err := parseSerialConfig(params)
		if err != nil {
			return nil, err
		}
		return UARTConfig{SerialConfig: sc}, nil
	case KindRS485:
		sc, err := parseSerialConfig(params)
		if err != nil {
			return nil, err
		}
		return RS485Config{SerialConfig: sc}, nil
	case KindCAN:
		cfg, err := parseCANConfig(params)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	case KindI2C:
		cfg, err := parseI2CConfig(params)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	default:
		return nil, &ConfigError{Field: "protocol", Value: string(kind), Err: errors.New("unsupported protocol")}
	}
}

func parseSerialConfig(params Params) (SerialConfig, error) {
	cfg := SerialConfig{
		Port:    params.get(ParamPort),
		Timeout: DefaultSerialTimeout,
	}
	if cfg.Port == "" {
		return SerialConfig{}, &ConfigError{Field: ParamPort, Err: errors.New("serial port is required")}
	}

	baud, err := requiredInt(params, ParamBaudRate)
	if err != nil {
		return SerialConfig{}, err
	}
	if baud <= 0 {
		return SerialConfig{}, invalidValue(ParamBaudRate, params.get(ParamBaudRate), "must be positive")
	}
	cfg.BaudRate = baud

	if raw := params.get(ParamTimeoutSeconds); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return SerialConfig{}, invalidValue(ParamTimeoutSeconds, raw, "must be a number of seconds")
		}
		if seconds <= 0 {
			return SerialConfig{}, invalidValue(ParamTimeoutSeconds, raw, "must be positive")
		}
		cfg.Timeout = time.Duration(seconds * float64(time.Second))
	}

	size, ok, err := optionalInt(params, ParamReadBytes)
	if err != nil {
		return SerialConfig{}, err
	}
	if ok {
		if size < 0 {
			return SerialConfig{}, invalidValue(ParamReadBytes, params.get(ParamReadBytes), "must not be negative")
		}
		cfg.ReadSize = size
	}

	return cfg, nil
}

func parseCANConfig(params Params) (CANConfig, error) {
	cfg := CANConfig{
		Channel:       params.get(ParamChannel),
		BitRate:       DefaultCANBitRate,
		ArbitrationID: DefaultCANArbitrationID,
	}
	if cfg.Channel == "" {
		return CANConfig{}, &ConfigError{Field: ParamChannel, Err: errors.New("can channel is required")}
	}

	bitRate, ok, err := optionalInt(params, ParamBitRate)
	if err != nil {
		return CANConfig{}, err
	}
	if ok {
		if bitRate <= 0 {
			return CANConfig{}, invalidValue(ParamBitRate, params.get(ParamBitRate), "must be positive")
		}
		cfg.BitRate = bitRate
	}

	id, ok, err := optionalInt(params, ParamArbitrationID)
	if err != nil {
		return CANConfig{}, err
	}
	if ok {
		if id < 0 || id > maxCANStdID {
			return CANConfig{}, invalidValue(ParamArbitrationID, params.get(ParamArbitrationID), "must be an 11-bit identifier")
		}
		cfg.ArbitrationID = uint32(id) // #nosec G115 -- bounded by maxCANStdID above.
	}

	return cfg, nil
}

func parseI2CConfig(params Params) (I2CConfig, error) {
	cfg := I2CConfig{ReadSize: defaultI2CReadBytes}

	bus, err := requiredInt(params, ParamBusNumber)
	if err != nil {
		return I2CConfig{}, err
	}
	if bus < 0 {
		return I2CConfig{}, invalidValue(ParamBusNumber, params.get(ParamBusNumber), "must not be negative")
	}
	cfg.BusNumber = bus

	addr, err := requiredInt(params, ParamDeviceAddress)
	if err != nil {
		return I2CConfig{}, err
	}
	if addr < 0 || addr > maxI2CAddress {
		return I2CConfig{}, invalidValue(ParamDeviceAddress, params.get(ParamDeviceAddress), "must be within 0-127")
	}
	cfg.DeviceAddress = uint8(addr) // #nosec G115 -- bounded by maxI2CAddress above.

	reg, ok, err := optionalInt(params, ParamRegister)
	if err != nil {
		return I2CConfig{}, err
	}
	if ok {
		if reg < 0 || reg > maxI2CRegister {
			return I2CConfig{}, invalidValue(ParamRegister, params.get(ParamRegister), "must be within 0-255")
		}
		cfg.Register = uint8(reg) // #nosec G115 -- bounded by maxI2CRegister above.
		cfg.HasRegister = true
	}

	size, ok, err := optionalInt(params, ParamReadBytes)
	if err != nil {
		return I2CConfig{}, err
	}
	if ok {
		if size <= 0 {
			return I2CConfig{}, invalidValue(ParamReadBytes, params.get(ParamReadBytes), "must be positive")
		}
		if cfg.HasRegister && size > maxI2CBlockLen {
			return I2CConfig{}, invalidValue(ParamReadBytes, params.get(ParamReadBytes), "block reads are limited to 32 bytes")
		}
		cfg.ReadSize = size
	}

	return cfg, nil
}

func requiredInt(params Params, key string) (int, error) {
	v, ok, err := optionalInt(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ConfigError{Field: key, Err: errors.New("value is required")}
	}

	return v, nil
}

// optionalInt parses decimal or 0x-prefixed hex values. Leading zeros stay decimal.
func optionalInt(params Params, key string) (int, bool, error) {
	raw := params.get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := parseInteger(raw)
	if err != nil {
		return 0, false, &ConfigError{Field: key, Value: raw, Err: errors.New("must be a decimal or 0x-prefixed hex integer")}
	}

	return int(v), true, nil
}

func parseInteger(raw string) (int64, error) {
	if len(raw) > 2 && (raw[:2] == "0x" || raw[:2] == "0X") {
		digits := raw[2:]
		if digits[0] == '+' || digits[0] == '-' {
			return 0, strconv.ErrSyntax
		}
		return strconv.ParseInt(digits, 16, 32)
	}

	return strconv.ParseInt(raw, 10, 32)
}

func invalidValue(field, value, reason string) error {
	return &ConfigError{Field: field, Value: value, Err: errors.New(reason)}
}
