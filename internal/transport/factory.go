package transport

import (
	"errors"
	"fmt"
)

// New builds an unconnected transport for kind from plain params.
func New(kind Kind, params Params) (Transport, error) {
	cfg, err := ParseConfig(kind, params)
	if err != nil {
		return nil, err
	}

	return NewFromConfig(cfg)
}

// NewFromConfig builds an unconnected transport for an already validated config.
func NewFromConfig(cfg Config) (Transport, error) {
	switch c := cfg.(type) {
	case UARTConfig:
		return NewUARTTransport(c), nil
	case RS485Config:
		return NewRS485Transport(c), nil
	case CANConfig:
		return NewCANTransport(c), nil
	case I2CConfig:
		return NewI2CTransport(c), nil
	case nil:
		return nil, &ConfigError{Err: errors.New("connection config is missing")}
	default:
		return nil, &ConfigError{Err: fmt.Errorf("unsupported config type %T", cfg)}
	}
}
