package strarena

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/strarena/internal/layout"
)

// Encoding selects how string payloads are stored in the arena.
type Encoding = layout.Encoding

const (
	// EncodingUTF8 stores strings as their UTF-8 bytes. Reads are zero-copy.
	EncodingUTF8 = layout.UTF8
	// EncodingUTF16 stores strings as little-endian UTF-16 code units.
	// Reads decode into a heap string.
	EncodingUTF16 = layout.UTF16
)

// DefaultEncoding is used when neither the Config nor WithEncoding names one.
const DefaultEncoding = EncodingUTF8

// Config sizes a pool.
//
// A pool reserves room for EstimatedCount records of EstimatedLength encoding
// units each. Shorter strings leave room for more records, longer ones for
// fewer. The config is fixed once the pool exists; use Pool.Reinit to change it.
type Config struct {
	EstimatedCount  int      `yaml:"estimated_count"`
	EstimatedLength int      `yaml:"estimated_length"`
	Encoding        Encoding `yaml:"encoding,omitempty"`
}

// Validate checks the estimates and the encoding.
// A zero Encoding is valid and means DefaultEncoding.
func (c Config) Validate() error {
	if c.EstimatedCount < 0 {
		return fmt.Errorf("%w: negative estimated count %d", ErrInvalidConfig, c.EstimatedCount)
	}
	if c.EstimatedLength < 0 {
		return fmt.Errorf("%w: negative estimated length %d", ErrInvalidConfig, c.EstimatedLength)
	}
	if c.Encoding != 0 && c.Encoding.Stride() == 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, layout.ErrUnknownEncoding, uint8(c.Encoding))
	}
	return nil
}

// ArenaSize returns the number of bytes a pool with this config reserves.
func (c Config) ArenaSize() (int, error) {
	c = c.withEncoding(0)
	if err := c.Validate(); err != nil {
		return 0, err
	}
	size, err := layout.ArenaSize(c.EstimatedCount, c.EstimatedLength, layout.For(c.Encoding))
	if err != nil {
		return 0, translateError(err)
	}
	return size, nil
}

func (c Config) withEncoding(fallback Encoding) Config {
	if c.Encoding == 0 {
		c.Encoding = fallback
	}
	if c.Encoding == 0 {
		c.Encoding = DefaultEncoding
	}
	return c
}

// ParseConfig parses a YAML document:
//
//	estimated_count: 10000
//	estimated_length: 32
//	encoding: utf16
func ParseConfig(data []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(data))
}

// LoadConfig reads a YAML config from r. Unknown fields are rejected.
// An empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalConfig encodes cfg as YAML.
func MarshalConfig(cfg Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(cfg)
}
