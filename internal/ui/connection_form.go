package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/transport"
)

const (
	protocolOptionUART  = "UART"
	protocolOptionRS485 = "RS485"
	protocolOptionCAN   = "CAN"
	protocolOptionI2C   = "I2C"
)

var protocolOptions = []string{protocolOptionUART, protocolOptionRS485, protocolOptionCAN, protocolOptionI2C}

var defaultSerialBaudOptions = []string{"9600", "19200", "38400", "57600", "115200", "230400", "460800", "921600"}

type serialFields struct {
	port      *widget.SelectEntry
	baud      *widget.SelectEntry
	timeout   *widget.Entry
	readBytes *widget.Entry
	refresh   *widget.Button
	form      fyne.CanvasObject
}

// connectionForm is the protocol selector plus one field set per protocol, stacked so only
// the selected one is visible.
type connectionForm struct {
	protocol *widget.Select

	uart  serialFields
	rs485 serialFields

	canChannel *widget.Entry
	canBitRate *widget.Entry
	canID      *widget.Entry

	i2cBus       *widget.Entry
	i2cAddress   *widget.Entry
	i2cRegister  *widget.Entry
	i2cReadBytes *widget.Entry

	forms       map[transport.Kind]fyne.CanvasObject
	listPorts   func() ([]string, error)
	portOptions []string
	status      *widget.Label
	content     fyne.CanvasObject
}

func newConnectionForm(cfg config.ConnectionConfig, listPorts func() ([]string, error)) *connectionForm {
	f := &connectionForm{
		listPorts: listPorts,
		status:    widget.NewLabel(""),
	}
	f.status.Wrapping = fyne.TextWrapWord

	f.uart = f.newSerialFields(cfg.UART)
	f.rs485 = f.newSerialFields(cfg.RS485)

	f.canChannel = newEntry(cfg.CAN.Channel, "can0")
	f.canBitRate = newEntry(strconv.Itoa(cfg.CAN.BitRate), "500000")
	f.canID = newEntry(fmt.Sprintf("0x%X", cfg.CAN.ArbitrationID), "0x123")

	f.i2cBus = newEntry(strconv.Itoa(cfg.I2C.BusNumber), "1")
	f.i2cAddress = newEntry(fmt.Sprintf("0x%02X", cfg.I2C.DeviceAddress), "0x42")
	register := ""
	if cfg.I2C.UseRegister {
		register = fmt.Sprintf("0x%02X", cfg.I2C.Register)
	}
	f.i2cRegister = newEntry(register, "none (direct byte mode)")
	f.i2cReadBytes = newEntry(strconv.Itoa(cfg.I2C.ReadBytes), "1")

	f.forms = map[transport.Kind]fyne.CanvasObject{
		transport.KindUART:  f.uart.form,
		transport.KindRS485: f.rs485.form,
		transport.KindCAN: widget.NewForm(
			widget.NewFormItem("Channel", f.canChannel),
			widget.NewFormItem("Bit rate", f.canBitRate),
			widget.NewFormItem("Arbitration ID", f.canID),
		),
		transport.KindI2C: widget.NewForm(
			widget.NewFormItem("Bus number", f.i2cBus),
			widget.NewFormItem("Device address", f.i2cAddress),
			widget.NewFormItem("Register", f.i2cRegister),
			widget.NewFormItem("Read bytes", f.i2cReadBytes),
		),
	}

	stack := container.NewStack()
	for _, kind := range transport.Kinds() {
		stack.Add(f.forms[kind])
	}

	f.protocol = widget.NewSelect(protocolOptions, func(value string) {
		kind := protocolKindFromOption(value)
		f.showForm(kind)
		if kind == transport.KindUART || kind == transport.KindRS485 {
			f.refreshPorts()
		}
	})
	f.protocol.SetSelected(protocolOptionFromKind(cfg.Protocol))

	f.content = container.NewVBox(
		widget.NewForm(widget.NewFormItem("Protocol", f.protocol)),
		stack,
		f.status,
	)

	return f
}

func (f *connectionForm) newSerialFields(cfg config.SerialConfig) serialFields {
	fields := serialFields{
		port:      widget.NewSelectEntry(nil),
		baud:      widget.NewSelectEntry(uniqueValues(append(defaultSerialBaudOptions, strconv.Itoa(cfg.BaudRate)))),
		timeout:   newEntry(strconv.FormatFloat(cfg.TimeoutSeconds, 'f', -1, 64), "1.0"),
		readBytes: newEntry("", "line mode"),
	}
	fields.port.SetText(cfg.Port)
	fields.port.SetPlaceHolder("/dev/ttyUSB0")
	fields.baud.SetText(strconv.Itoa(cfg.BaudRate))
	if cfg.ReadBytes > 0 {
		fields.readBytes.SetText(strconv.Itoa(cfg.ReadBytes))
	}
	fields.refresh = widget.NewButton("Refresh", f.refreshPorts)

	fields.form = widget.NewForm(
		widget.NewFormItem("Port", container.NewBorder(nil, nil, nil, fields.refresh, fields.port)),
		widget.NewFormItem("Baud rate", fields.baud),
		widget.NewFormItem("Timeout (s)", fields.timeout),
		widget.NewFormItem("Read bytes", fields.readBytes),
	)

	return fields
}

func newEntry(text, placeholder string) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetText(text)
	entry.SetPlaceHolder(placeholder)

	return entry
}

func (f *connectionForm) Content() fyne.CanvasObject {
	return f.content
}

func (f *connectionForm) Kind() transport.Kind {
	return protocolKindFromOption(f.protocol.Selected)
}

// Params collects the visible fields as entered. Validation is left to the transport factory.
func (f *connectionForm) Params() transport.Params {
	switch f.Kind() {
	case transport.KindUART:
		return f.uart.params()
	case transport.KindRS485:
		return f.rs485.params()
	case transport.KindCAN:
		return transport.Params{
			transport.ParamChannel:       strings.TrimSpace(f.canChannel.Text),
			transport.ParamBitRate:       strings.TrimSpace(f.canBitRate.Text),
			transport.ParamArbitrationID: strings.TrimSpace(f.canID.Text),
		}
	case transport.KindI2C:
		params := transport.Params{
			transport.ParamBusNumber:     strings.TrimSpace(f.i2cBus.Text),
			transport.ParamDeviceAddress: strings.TrimSpace(f.i2cAddress.Text),
			transport.ParamReadBytes:     strings.TrimSpace(f.i2cReadBytes.Text),
		}
		if register := strings.TrimSpace(f.i2cRegister.Text); register != "" {
			params[transport.ParamRegister] = register
		}
		return params
	default:
		return transport.Params{}
	}
}

func (s serialFields) params() transport.Params {
	params := transport.Params{
		transport.ParamPort:           strings.TrimSpace(s.port.Text),
		transport.ParamBaudRate:       strings.TrimSpace(s.baud.Text),
		transport.ParamTimeoutSeconds: strings.TrimSpace(s.timeout.Text),
	}
	if readBytes := strings.TrimSpace(s.readBytes.Text); readBytes != "" {
		params[transport.ParamReadBytes] = readBytes
	}

	return params
}

// SetEditable locks the fields while a session is open.
func (f *connectionForm) SetEditable(editable bool) {
	setEnabled(editable,
		f.protocol,
		f.uart.port, f.uart.baud, f.uart.timeout, f.uart.readBytes, f.uart.refresh,
		f.rs485.port, f.rs485.baud, f.rs485.timeout, f.rs485.readBytes, f.rs485.refresh,
		f.canChannel, f.canBitRate, f.canID,
		f.i2cBus, f.i2cAddress, f.i2cRegister, f.i2cReadBytes,
	)
}

func (f *connectionForm) showForm(kind transport.Kind) {
	for k, form := range f.forms {
		setVisible(k == kind, form)
	}
	f.status.SetText("")
}

func (f *connectionForm) refreshPorts() {
	if f.listPorts == nil {
		return
	}
	ports, err := f.listPorts()
	if err != nil {
		f.status.SetText("Failed to list serial ports: " + err.Error())
		return
	}
	sort.Strings(ports)
	f.portOptions = uniqueValues(ports)

	for _, fields := range []serialFields{f.uart, f.rs485} {
		options := append(append([]string(nil), f.portOptions...), fields.port.Text)
		fields.port.SetOptions(uniqueValues(options))
	}

	if len(ports) == 0 {
		f.status.SetText("No serial ports detected")
		return
	}
	f.status.SetText("")
}

func protocolOptionFromKind(kind transport.Kind) string {
	switch kind {
	case transport.KindRS485:
		return protocolOptionRS485
	case transport.KindCAN:
		return protocolOptionCAN
	case transport.KindI2C:
		return protocolOptionI2C
	default:
		return protocolOptionUART
	}
}

func protocolKindFromOption(option string) transport.Kind {
	switch option {
	case protocolOptionRS485:
		return transport.KindRS485
	case protocolOptionCAN:
		return transport.KindCAN
	case protocolOptionI2C:
		return transport.KindI2C
	default:
		return transport.KindUART
	}
}
