package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The inspector command is not
// required here; only the deep worker needs it and checks at startup.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.SweepIntervalMin > c.Workflow.SweepIntervalMax {
		return fmt.Errorf("workflow.sweep_interval_min (%d) must not exceed workflow.sweep_interval_max (%d)",
			c.Workflow.SweepIntervalMin, c.Workflow.SweepIntervalMax)
	}
	if c.Workflow.PollCap > c.Workflow.WaitTimeout {
		return fmt.Errorf("workflow.poll_cap (%d) must not exceed workflow.wait_timeout (%d)",
			c.Workflow.PollCap, c.Workflow.WaitTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}
