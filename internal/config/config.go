package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tunelink/tunelink/internal/transport"
)

const (
	DefaultSerialPort     = "/dev/ttyUSB0"
	DefaultSerialBaud     = 115200
	DefaultSerialTimeout  = 1.0
	DefaultCANChannel     = "can0"
	DefaultI2CBus         = 1
	DefaultI2CAddress     = 0x42
	DefaultJournalLimit   = 5000
	DefaultLogLevel       = "info"
	defaultJournalMinimum = 100
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// SerialConfig holds the prefilled fields of the UART and RS485 forms.
type SerialConfig struct {
	Port           string  `json:"port"`
	BaudRate       int     `json:"baud_rate"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	ReadBytes      int     `json:"read_bytes"`
}

type CANConfig struct {
	Channel       string `json:"channel"`
	BitRate       int    `json:"bit_rate"`
	ArbitrationID int    `json:"arbitration_id"`
}

type I2CConfig struct {
	BusNumber     int  `json:"bus_number"`
	DeviceAddress int  `json:"device_address"`
	UseRegister   bool `json:"use_register"`
	Register      int  `json:"register"`
	ReadBytes     int  `json:"read_bytes"`
}

// ConnectionConfig contains per-protocol connection defaults.
type ConnectionConfig struct {
	Protocol transport.Kind `json:"protocol"`
	UART     SerialConfig   `json:"uart"`
	RS485    SerialConfig   `json:"rs485"`
	CAN      CANConfig      `json:"can"`
	I2C      I2CConfig      `json:"i2c"`
}

// TuningConfig prefills the PID and pose forms.
type TuningConfig struct {
	Kp       string `json:"kp"`
	Ki       string `json:"ki"`
	Kd       string `json:"kd"`
	Yaw      string `json:"yaw"`
	Roll     string `json:"roll"`
	Distance string `json:"distance"`
}

// JournalConfig controls the on-disk traffic journal.
type JournalConfig struct {
	Enabled  bool `json:"enabled"`
	MaxLines int  `json:"max_lines"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	SessionLost bool `json:"session_lost"`
}

// AppConfig is the root application configuration. It is only ever read.
type AppConfig struct {
	Connection    ConnectionConfig   `json:"connection"`
	Logging       LoggingConfig      `json:"logging"`
	Tuning        TuningConfig       `json:"tuning"`
	Journal       JournalConfig      `json:"journal"`
	Notifications NotificationConfig `json:"notifications"`
}

func Default() AppConfig {
	serial := SerialConfig{
		Port:           DefaultSerialPort,
		BaudRate:       DefaultSerialBaud,
		TimeoutSeconds: DefaultSerialTimeout,
	}

	return AppConfig{
		Connection: ConnectionConfig{
			Protocol: transport.KindUART,
			UART:     serial,
			RS485:    serial,
			CAN: CANConfig{
				Channel:       DefaultCANChannel,
				BitRate:       transport.DefaultCANBitRate,
				ArbitrationID: transport.DefaultCANArbitrationID,
			},
			I2C: I2CConfig{
				BusNumber:     DefaultI2CBus,
				DeviceAddress: DefaultI2CAddress,
				ReadBytes:     1,
			},
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			LogToFile: false,
		},
		Tuning: TuningConfig{
			Kp:       "1.0",
			Ki:       "0.1",
			Kd:       "0.01",
			Yaw:      "0.0",
			Roll:     "0.0",
			Distance: "0.0",
		},
		Journal: JournalConfig{
			Enabled:  true,
			MaxLines: DefaultJournalLimit,
		},
		Notifications: NotificationConfig{
			SessionLost: true,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	def := Default()

	if kind, err := transport.ParseKind(string(c.Connection.Protocol)); err == nil {
		c.Connection.Protocol = kind
	} else {
		c.Connection.Protocol = def.Connection.Protocol
	}
	fillSerial(&c.Connection.UART, def.Connection.UART)
	fillSerial(&c.Connection.RS485, def.Connection.RS485)
	if strings.TrimSpace(c.Connection.CAN.Channel) == "" {
		c.Connection.CAN.Channel = def.Connection.CAN.Channel
	}
	if c.Connection.CAN.BitRate <= 0 {
		c.Connection.CAN.BitRate = def.Connection.CAN.BitRate
	}
	if c.Connection.CAN.ArbitrationID < 0 {
		c.Connection.CAN.ArbitrationID = def.Connection.CAN.ArbitrationID
	}
	if c.Connection.I2C.ReadBytes <= 0 {
		c.Connection.I2C.ReadBytes = def.Connection.I2C.ReadBytes
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	fillString(&c.Tuning.Kp, def.Tuning.Kp)
	fillString(&c.Tuning.Ki, def.Tuning.Ki)
	fillString(&c.Tuning.Kd, def.Tuning.Kd)
	fillString(&c.Tuning.Yaw, def.Tuning.Yaw)
	fillString(&c.Tuning.Roll, def.Tuning.Roll)
	fillString(&c.Tuning.Distance, def.Tuning.Distance)

	if c.Journal.MaxLines <= 0 {
		c.Journal.MaxLines = DefaultJournalLimit
	}
	if c.Journal.MaxLines < defaultJournalMinimum {
		c.Journal.MaxLines = defaultJournalMinimum
	}
}

func fillSerial(dst *SerialConfig, def SerialConfig) {
	fillString(&dst.Port, def.Port)
	if dst.BaudRate <= 0 {
		dst.BaudRate = def.BaudRate
	}
	if dst.TimeoutSeconds <= 0 {
		dst.TimeoutSeconds = def.TimeoutSeconds
	}
	if dst.ReadBytes < 0 {
		dst.ReadBytes = 0
	}
}

func fillString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

// Validate checks that the selected protocol's defaults form a usable connection.
func (c AppConfig) Validate() error {
	if _, err := transport.ParseConfig(c.Connection.Protocol, c.Connection.Params(c.Connection.Protocol)); err != nil {
		return fmt.Errorf("connection defaults: %w", err)
	}

	return nil
}

// Params renders the stored fields for kind as the key/value surface accepted by the transport factory.
func (c ConnectionConfig) Params(kind transport.Kind) transport.Params {
	switch kind {
	case transport.KindUART:
		return serialParams(c.UART)
	case transport.KindRS485:
		return serialParams(c.RS485)
	case transport.KindCAN:
		return transport.Params{
			transport.ParamChannel:       c.CAN.Channel,
			transport.ParamBitRate:       strconv.Itoa(c.CAN.BitRate),
			transport.ParamArbitrationID: fmt.Sprintf("0x%X", c.CAN.ArbitrationID),
		}
	case transport.KindI2C:
		params := transport.Params{
			transport.ParamBusNumber:     strconv.Itoa(c.I2C.BusNumber),
			transport.ParamDeviceAddress: fmt.Sprintf("0x%02X", c.I2C.DeviceAddress),
			transport.ParamReadBytes:     strconv.Itoa(c.I2C.ReadBytes),
		}
		if c.I2C.UseRegister {
			params[transport.ParamRegister] = fmt.Sprintf("0x%02X", c.I2C.Register)
		}
		return params
	default:
		return transport.Params{}
	}
}

func serialParams(s SerialConfig) transport.Params {
	params := transport.Params{
		transport.ParamPort:           s.Port,
		transport.ParamBaudRate:       strconv.Itoa(s.BaudRate),
		transport.ParamTimeoutSeconds: strconv.FormatFloat(s.TimeoutSeconds, 'f', -1, 64),
	}
	if s.ReadBytes > 0 {
		params[transport.ParamReadBytes] = strconv.Itoa(s.ReadBytes)
	}

	return params
}
