package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeInspector()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInspector() {
	c.Inspector.Command = strings.TrimSpace(c.Inspector.Command)
	if c.Inspector.JoinTimeout <= 0 {
		c.Inspector.JoinTimeout = defaultJoinTimeout
	}
	if c.Inspector.AnalyzeTimeout <= 0 {
		c.Inspector.AnalyzeTimeout = defaultAnalyzeTimeout
	}
	if c.Inspector.SettleSeconds < 0 {
		c.Inspector.SettleSeconds = defaultSettleSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SweepIntervalMin <= 0 {
		c.Workflow.SweepIntervalMin = defaultSweepIntervalMin
	}
	if c.Workflow.SweepIntervalMax <= 0 {
		c.Workflow.SweepIntervalMax = defaultSweepIntervalMax
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.WaitTimeout <= 0 {
		c.Workflow.WaitTimeout = defaultWaitTimeout
	}
	if c.Workflow.PollCap <= 0 {
		c.Workflow.PollCap = defaultPollCap
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
