// Package config loads ttbl user settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thomasrohde/ttbl/pkg/formatter"
	"github.com/thomasrohde/ttbl/pkg/report"
	"github.com/thomasrohde/ttbl/pkg/truthtable"
)

// ProjectFile is looked up in the working directory.
const ProjectFile = ".ttbl.json"

// SourceDefaults is reported when no config file was found.
const SourceDefaults = "defaults"

// Config holds the effective settings. Zero fields in a file keep their
// defaults.
type Config struct {
	Format       string `json:"format,omitempty"`
	Notation     string `json:"notation,omitempty"`
	Order        string `json:"order,omitempty"`
	TrueMark     string `json:"trueMark,omitempty"`
	FalseMark    string `json:"falseMark,omitempty"`
	WrapWidth    int    `json:"wrapWidth,omitempty"`
	MaxVariables int    `json:"maxVariables,omitempty"`
	Workers      int    `json:"workers,omitempty"`
	CacheSize    int    `json:"cacheSize,omitempty"`
	HistoryFile  string `json:"historyFile,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Format:       string(report.FormatTable),
		Notation:     formatter.Symbols.Name,
		Order:        truthtable.TrueFirst.String(),
		TrueMark:     "T",
		FalseMark:    "F",
		WrapWidth:    report.DefaultWrapWidth,
		MaxVariables: truthtable.DefaultMaxVariables,
		CacheSize:    128,
		HistoryFile:  defaultHistoryFile(),
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ttbl_history")
}

// UserFile returns the path of the per-user config file.
func UserFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ttbl", "config.json"), nil
}

// Load reads settings with precedence project (.ttbl.json) → user
// (~/.ttbl/config.json) → defaults. It returns the config and the path it
// came from. A file that exists but does not parse is an error.
func Load(projectDir string) (*Config, string, error) {
	paths := []string{filepath.Join(projectDir, ProjectFile)}
	if user, err := UserFile(); err == nil {
		paths = append(paths, user)
	}

	for _, path := range paths {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return Defaults(), SourceDefaults, nil
}

// LoadFile reads one config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file Config
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg := Defaults()
	cfg.Merge(&file)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge copies every non-zero field of o into c.
func (c *Config) Merge(o *Config) {
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Notation != "" {
		c.Notation = o.Notation
	}
	if o.Order != "" {
		c.Order = o.Order
	}
	if o.TrueMark != "" {
		c.TrueMark = o.TrueMark
	}
	if o.FalseMark != "" {
		c.FalseMark = o.FalseMark
	}
	if o.WrapWidth != 0 {
		c.WrapWidth = o.WrapWidth
	}
	if o.MaxVariables != 0 {
		c.MaxVariables = o.MaxVariables
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.CacheSize != 0 {
		c.CacheSize = o.CacheSize
	}
	if o.HistoryFile != "" {
		c.HistoryFile = o.HistoryFile
	}
}

// Validate rejects unknown names and out-of-range numbers.
func (c *Config) Validate() error {
	var errs []error
	if _, err := report.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := formatter.LookupNotation(c.Notation); err != nil {
		errs = append(errs, err)
	}
	if _, err := truthtable.ParseOrder(c.Order); err != nil {
		errs = append(errs, err)
	}
	if c.MaxVariables < 0 || c.MaxVariables > truthtable.HardMaxVariables {
		errs = append(errs, fmt.Errorf("maxVariables must be between 0 and %d, got %d", truthtable.HardMaxVariables, c.MaxVariables))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.WrapWidth < 0 {
		errs = append(errs, fmt.Errorf("wrapWidth must not be negative, got %d", c.WrapWidth))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cacheSize must not be negative, got %d", c.CacheSize))
	}
	return errors.Join(errs...)
}

// ReportOptions returns the report settings of c.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		Format:    report.Format(c.Format),
		TrueMark:  c.TrueMark,
		FalseMark: c.FalseMark,
		WrapWidth: c.WrapWidth,
	}
}
