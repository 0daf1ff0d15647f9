// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	// Timeout bounds a single backend conversion call (default 120s).
	// An Office automation call that exceeds it is treated as blocked by
	// a modal dialog; a suite call that exceeds it as a plain timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// SuiteBinary overrides the headless suite executable. When empty the
	// converter probes soffice, then libreoffice, on PATH.
	SuiteBinary string `json:"suite_binary,omitempty" yaml:"suite_binary,omitempty"`

	// DisableOffice skips the Office automation backend even on hosts
	// where it would be available.
	DisableOffice bool `json:"disable_office" yaml:"disable_office"`
}

// OutputConfig holds settings for output naming and placement.
type OutputConfig struct {
	// Dir is the directory locked PDFs are written to. Default:
	// a "Locked PDFs" folder on the user's desktop. Created on demand.
	Dir string `json:"dir" yaml:"dir"`

	// Prefix is prepended to the input file's stem (default "locked_").
	Prefix string `json:"prefix" yaml:"prefix"`
}

// PasswordPolicy bounds acceptable password lengths. The same password is
// applied as both user and owner password; see docs/ARCHITECTURE § Security.
type PasswordPolicy struct {
	// MinLength is the minimum accepted password length (default 4).
	MinLength int `json:"min_length" yaml:"min_length"`

	// MaxLength is the maximum accepted password length (default 128).
	MaxLength int `json:"max_length" yaml:"max_length"`
}

// HistoryConfig holds settings for the batch history journal.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Limit is the default number of runs shown by the history listing
	// (default 10).
	Limit int `json:"limit" yaml:"limit"`
}

// LockConfig groups all stage configurations for a batch run.
type LockConfig struct {
	Convert  ConvertConfig  `json:"convert" yaml:"convert"`
	Output   OutputConfig   `json:"output" yaml:"output"`
	Password PasswordPolicy `json:"password" yaml:"password"`
	History  HistoryConfig  `json:"history" yaml:"history"`
}

const (
	// DefaultConvertTimeout bounds one external conversion call.
	DefaultConvertTimeout = 120 * time.Second

	// DefaultOutputPrefix marks locked output files.
	DefaultOutputPrefix = "locked_"

	// DefaultMinPasswordLength matches the original product policy.
	DefaultMinPasswordLength = 4

	// MaxPasswordLength is a hard cap regardless of configuration.
	MaxPasswordLength = 128
)

// WithDefaults returns a copy of the config with zero values replaced by
// the documented defaults.
func (c LockConfig) WithDefaults() LockConfig {
	if c.Convert.Timeout <= 0 {
		c.Convert.Timeout = DefaultConvertTimeout
	}
	if c.Output.Prefix == "" {
		c.Output.Prefix = DefaultOutputPrefix
	}
	if c.Password.MinLength <= 0 {
		c.Password.MinLength = DefaultMinPasswordLength
	}
	if c.Password.MaxLength <= 0 || c.Password.MaxLength > MaxPasswordLength {
		c.Password.MaxLength = MaxPasswordLength
	}
	if c.History.Limit <= 0 {
		c.History.Limit = 10
	}
	return c
}
