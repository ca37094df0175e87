// Package config handles configuration and the .paperforge directory
// structure. Every project that uses PaperForge gets a .paperforge/ folder
// created in its root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory created in each project.
	ProjectDirName = ".paperforge"

	defaultProvider  = "openai"
	defaultMaxTokens = 4096
)

const defaultConfigYAML = `# paperforge project configuration
version: 1

llm:
  # provider: openai | anthropic
  provider: openai
  # model: leave empty for the provider default
  model: ""
  max_tokens: 4096

inputs:
  syllabus: inputs/syllabus.md
  pyq: inputs/pyq.md
`

// LLMConfig selects the language-model provider used by the generation agents.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// InputsConfig locates the source documents the pipeline analyzes.
type InputsConfig struct {
	Syllabus string `yaml:"syllabus"`
	PYQ      string `yaml:"pyq"`
}

// ProjectConfig models .paperforge/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	LLM     LLMConfig    `yaml:"llm"`
	Inputs  InputsConfig `yaml:"inputs"`
}

// Config holds the runtime configuration for PaperForge.
type Config struct {
	// ProjectDir is the directory the user ran `paperforge` from.
	ProjectDir string

	// ForgeDir is ProjectDir/.paperforge.
	ForgeDir string

	Project ProjectConfig
}

// InitProjectDir creates the .paperforge directory structure:
//
// .paperforge/
// ├── logs/        <- pipeline logbook
// ├── inputs/      <- syllabus and prior-year source documents
// ├── generated/   <- final papers and answer keys
// └── state/       <- project record database
func InitProjectDir(projectDir string) error {
	forgeDir := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(forgeDir, "logs"),
		filepath.Join(forgeDir, "inputs"),
		filepath.Join(forgeDir, "generated"),
		filepath.Join(forgeDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(forgeDir, "config.yaml"))
}

// NewConfig creates a Config populated from .paperforge/config.yaml, falling
// back to defaults when the file does not exist yet.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		ForgeDir:   filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ForgeDir, "logs")
}

// GeneratedDir returns where final papers and answer keys are written.
func (c *Config) GeneratedDir() string {
	return filepath.Join(c.ForgeDir, "generated")
}

// DatabasePath returns the project record database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ForgeDir, "state", "projects.db")
}

// LogbookPath returns the pipeline logbook location.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "paperforge.log")
}

// ConfigPath returns the on-disk location for the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ForgeDir, "config.yaml")
}

// SyllabusPath resolves the configured syllabus document location.
func (c *Config) SyllabusPath() string {
	return c.resolveInput(c.Project.Inputs.Syllabus)
}

// PYQPath resolves the configured prior-year-questions document location.
func (c *Config) PYQPath() string {
	return c.resolveInput(c.Project.Inputs.PYQ)
}

func (c *Config) resolveInput(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(c.ForgeDir, trimmed))
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

// Save persists the project configuration back to .paperforge/config.yaml.
func (c *Config) Save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ForgeDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure project dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		LLM: LLMConfig{
			Provider:  defaultProvider,
			MaxTokens: defaultMaxTokens,
		},
		Inputs: InputsConfig{
			Syllabus: filepath.Join("inputs", "syllabus.md"),
			PYQ:      filepath.Join("inputs", "pyq.md"),
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	pc.LLM.Provider = strings.ToLower(strings.TrimSpace(pc.LLM.Provider))
	if pc.LLM.Provider == "" {
		pc.LLM.Provider = defaultProvider
	}
	if pc.LLM.MaxTokens <= 0 {
		pc.LLM.MaxTokens = defaultMaxTokens
	}
	if strings.TrimSpace(pc.Inputs.Syllabus) == "" {
		pc.Inputs.Syllabus = filepath.Join("inputs", "syllabus.md")
	}
	if strings.TrimSpace(pc.Inputs.PYQ) == "" {
		pc.Inputs.PYQ = filepath.Join("inputs", "pyq.md")
	}
}

func (pc ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be 'openai' or 'anthropic'")
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
