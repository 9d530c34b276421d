// Package config loads dcmview settings from TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/logging"
	"github.com/jpfielding/dcmview/pkg/raster"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Decoder backends
const (
	DecoderNative      = "native"
	DecoderSuyashkumar = "suyashkumar"
)

// Config is the full application configuration.
type Config struct {
	Server  Server          `toml:"server" yaml:"server"`
	Storage Storage         `toml:"storage" yaml:"storage"`
	Convert Convert         `toml:"convert" yaml:"convert"`
	Batch   Batch           `toml:"batch" yaml:"batch"`
	Logging logging.Options `toml:"logging" yaml:"logging"`
}

// Server configures the HTTP service.
type Server struct {
	Address        string   `toml:"address" yaml:"address"`
	CORSOrigins    []string `toml:"cors_origins" yaml:"corsOrigins"`
	Gzip           bool     `toml:"gzip" yaml:"gzip"`
	MaxUploadBytes int64    `toml:"max_upload_bytes" yaml:"maxUploadBytes"`
	ReadTimeoutSec int      `toml:"read_timeout_sec" yaml:"readTimeoutSec"`
}

// Storage locates uploaded files.
type Storage struct {
	// BucketURL is a gocloud.dev blob URL, e.g. file:///var/lib/dcmview or mem://
	BucketURL string `toml:"bucket_url" yaml:"bucketURL"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

// Convert holds the normalization and encoding defaults.
type Convert struct {
	Decoder        string  `toml:"decoder" yaml:"decoder"`
	Window         int     `toml:"window" yaml:"window"`
	Low            float64 `toml:"low" yaml:"low"`
	High           float64 `toml:"high" yaml:"high"`
	IgnoreExtremes bool    `toml:"ignore_extremes" yaml:"ignoreExtremes"`
	Format         string  `toml:"format" yaml:"format"`
	Quality        int     `toml:"quality" yaml:"quality"`
	MaxDimension   int     `toml:"max_dimension" yaml:"maxDimension"`
}

// Batch configures directory conversion.
type Batch struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Address:        "localhost:5000",
			Gzip:           true,
			MaxUploadBytes: 256 << 20,
			ReadTimeoutSec: 60,
		},
		Storage: Storage{
			BucketURL: "mem://",
		},
		Convert: Convert{
			Decoder:        DecoderNative,
			Low:            imaging.DefaultStretch.Low,
			High:           imaging.DefaultStretch.High,
			IgnoreExtremes: imaging.DefaultStretch.IgnoreExtremes,
			Format:         string(raster.PNG),
		},
		Batch: Batch{
			Workers: runtime.NumCPU(),
		},
		Logging: logging.Options{
			Level:      "INFO",
			MaxSizeMB:  100,
			MaxAgeDays: 28,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults; the extension selects the format.
// Relative file paths in the result are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown config extension %q", ErrInvalid, ext)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.resolve(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	if f := c.Logging.File; f != "" && !filepath.IsAbs(f) {
		c.Logging.File = filepath.Join(dir, f)
	}
	const scheme = "file://"
	if u := c.Storage.BucketURL; strings.HasPrefix(u, scheme) {
		if p := strings.TrimPrefix(u, scheme); !filepath.IsAbs(p) {
			c.Storage.BucketURL = scheme + filepath.ToSlash(filepath.Join(dir, p))
		}
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must be positive", c.Server.MaxUploadBytes))
	}
	if c.Storage.BucketURL == "" {
		errs = append(errs, errors.New("storage.bucket_url is empty"))
	}
	switch c.Convert.Decoder {
	case DecoderNative, DecoderSuyashkumar:
	default:
		errs = append(errs, fmt.Errorf("convert.decoder %q is not %s or %s", c.Convert.Decoder, DecoderNative, DecoderSuyashkumar))
	}
	if c.Convert.Window < 0 {
		errs = append(errs, fmt.Errorf("convert.window %d is negative", c.Convert.Window))
	}
	if err := c.Convert.Stretch().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Convert.RasterOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Convert.Quality < 0 || c.Convert.Quality > 100 {
		errs = append(errs, fmt.Errorf("convert.quality %d out of range", c.Convert.Quality))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers %d must be at least 1", c.Batch.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Stretch returns the percentile stretch parameters.
func (c Convert) Stretch() imaging.StretchParameters {
	return imaging.StretchParameters{Low: c.Low, High: c.High, IgnoreExtremes: c.IgnoreExtremes}
}

// RasterOptions returns the encoder options.
func (c Convert) RasterOptions() (raster.Options, error) {
	f, err := raster.ParseFormat(c.Format)
	if err != nil {
		return raster.Options{}, err
	}
	return raster.Options{Format: f, Quality: c.Quality, MaxDimension: c.MaxDimension}, nil
}
