package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NoError(t, err)
	assert.Equal(t, ":9092", cfg.Addr)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dltscan.toml")
	err := ioutil.WriteFile(path, []byte(`
addr = ":8080"
data_dir = "/var/lib/dltscan"

[serial]
port = "/dev/ttyACM1"
baud = 57600

[bridge]
url = "ws://lab-bridge:8989/ws"
port = "dlts0"
`), 0644)
	assert.NoError(t, err)

	cfg, err := loadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/var/lib/dltscan", cfg.DataDir)
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	// unset keys keep their defaults
	assert.Equal(t, 1000, cfg.Serial.TimeoutMS)
	assert.Equal(t, "ws://lab-bridge:8989/ws", cfg.Bridge.URL)
	assert.Equal(t, "dlts0", cfg.Bridge.Port)

	_ = os.Remove(path)
}
