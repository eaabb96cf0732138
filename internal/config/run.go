// Package config holds the resolved configuration of a single run invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RunConfig holds the configuration for one workflow run
type RunConfig struct {
	WorkflowPath string
	SeedPath     string
	OutputPath   string
	ReportName   string
	Seed         map[string]any
}

// NewRunConfig creates and validates a run configuration
func NewRunConfig(workflowPath, seedPath, outputPath string) (*RunConfig, error) {
	config := &RunConfig{
		WorkflowPath: workflowPath,
		SeedPath:     seedPath,
		OutputPath:   outputPath,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks paths and loads the seed file when one is given
func (c *RunConfig) validate() error {
	if c.WorkflowPath == "" {
		return fmt.Errorf("workflow path is required")
	}
	if _, err := os.Stat(c.WorkflowPath); os.IsNotExist(err) {
		return fmt.Errorf("workflow file does not exist: %s", c.WorkflowPath)
	}
	ext := strings.ToLower(filepath.Ext(c.WorkflowPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("workflow file must be a YAML file: %s", c.WorkflowPath)
	}

	if c.SeedPath != "" {
		data, err := os.ReadFile(c.SeedPath)
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c.Seed); err != nil {
			return fmt.Errorf("failed to parse seed file: %w", err)
		}
	}

	if c.OutputPath != "" {
		fileInfo, err := os.Stat(c.OutputPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access output path: %w", err)
			}
			if err := os.MkdirAll(c.OutputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		} else if !fileInfo.IsDir() {
			return fmt.Errorf("output must be a directory, not a file: %s", c.OutputPath)
		}
	}

	if c.ReportName == "" {
		base := filepath.Base(c.WorkflowPath)
		c.ReportName = strings.TrimSuffix(base, filepath.Ext(base)) + "-report.yaml"
	}

	return nil
}

// ReportPath returns where the run report should be written, or empty when no
// output directory was configured
func (c *RunConfig) ReportPath() string {
	if c.OutputPath == "" {
		return ""
	}
	return filepath.Join(c.OutputPath, c.ReportName)
}
