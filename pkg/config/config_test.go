package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, imaging.DefaultStretch, cfg.Convert.Stretch())
	opts, err := cfg.Convert.RasterOptions()
	require.NoError(t, err)
	assert.Equal(t, raster.PNG, opts.Format)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "dcmview.toml", `
[server]
address = ":8080"
cors_origins = ["https://viewer.example"]

[storage]
bucket_url = "file://uploads"

[convert]
decoder = "suyashkumar"
low = 1.0
high = 99.0
format = "jpeg"
quality = 85

[batch]
workers = 2

[logging]
level = "debug"
file = "logs/dcmview.log"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"https://viewer.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.Gzip, "unset keys keep defaults")
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(dir, "uploads")), cfg.Storage.BucketURL)
	assert.Equal(t, DecoderSuyashkumar, cfg.Convert.Decoder)
	assert.Equal(t, imaging.StretchParameters{Low: 1, High: 99, IgnoreExtremes: true}, cfg.Convert.Stretch())
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, filepath.Join(dir, "logs", "dcmview.log"), cfg.Logging.File)
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "dcmview.yaml", `
server:
  address: ":9000"
convert:
  ignoreExtremes: false
  maxDimension: 512
storage:
  bucketURL: "file:///srv/dicom"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.False(t, cfg.Convert.IgnoreExtremes)
	assert.Equal(t, 512, cfg.Convert.MaxDimension)
	assert.Equal(t, "file:///srv/dicom", cfg.Storage.BucketURL)
}

func TestLoadInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"stretch.toml": "[convert]\nlow = 60.0\nhigh = 40.0\n",
		"decoder.toml": "[convert]\ndecoder = \"gdcm\"\n",
		"format.toml":  "[convert]\nformat = \"tiff\"\n",
		"workers.yaml": "batch:\n  workers: 0\n",
	} {
		_, err := Load(write(t, name, body))
		assert.True(t, errors.Is(err, ErrInvalid), name)
	}

	_, err := Load(write(t, "dcmview.ini", ""))
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
