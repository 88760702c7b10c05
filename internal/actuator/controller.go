package actuator

import (
	"fmt"
	"sync"

	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/render"
	"github.com/banshee-data/spray.report/internal/spray"
)

// Controller writes text commands to the controller board. Each command is
// one line terminated by "\n". Controller is safe for concurrent use.
type Controller struct {
	mu   sync.Mutex
	port Port
	sent int
}

// NewController wraps an open port.
func NewController(port Port) *Controller {
	return &Controller{port: port}
}

// Send writes command followed by a newline.
func (c *Controller) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.port.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	c.sent++
	return nil
}

// Sent returns how many commands have been written successfully.
func (c *Controller) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Close closes the port.
func (c *Controller) Close() error {
	return c.port.Close()
}

// Aim points the nozzle at a bearing (degrees) and range from the sprayer.
func (c *Controller) Aim(angle, distance float64) error {
	return c.Send(fmt.Sprintf("AIM %.2f %.2f", angle, distance))
}

// Spray fires one pass with the given spray diameter.
func (c *Controller) Spray(diameter float64) error {
	return c.Send(fmt.Sprintf("SPRAY %.2f", diameter))
}

var _ render.Renderer = (*Controller)(nil)

// Begin logs the run being driven; the board needs no setup command.
func (c *Controller) Begin(s render.Scene) error {
	monitoring.Logf("[actuator] driving run %s: %d pests", s.RunID, len(s.Targets))
	return nil
}

// Frame aims at the visit's pest from the sprayer and fires one spray.
func (c *Controller) Frame(f spray.Frame) error {
	if err := c.Aim(f.Target.Angle, f.Target.Distance); err != nil {
		return err
	}
	return c.Spray(f.SprayDiameter)
}

// End logs the command count. The port stays open for the caller to close.
func (c *Controller) End() error {
	monitoring.Logf("[actuator] sent %d commands", c.Sent())
	return nil
}
