package actuator

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the byte stream to the controller board.
type Port interface {
	io.Writer
	io.Closer
}

// Open opens the serial device at path.
func Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
