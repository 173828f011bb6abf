package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Addr    string `toml:"addr"`
	DataDir string `toml:"data_dir"`
	UIDir   string `toml:"ui_dir"`

	Serial struct {
		Port      string `toml:"port"`
		Baud      int    `toml:"baud"`
		TimeoutMS int    `toml:"timeout_ms"`
	} `toml:"serial"`

	Bridge struct {
		URL  string `toml:"url"`
		Port string `toml:"port"`
	} `toml:"bridge"`
}

func defaultConfig() Config {
	var c Config
	c.Addr = ":9092"
	c.DataDir = "./data"
	c.UIDir = "./ui"
	c.Serial.Port = "/dev/ttyUSB0"
	c.Serial.Baud = 115200
	c.Serial.TimeoutMS = 1000
	return c
}

// loadConfig reads the TOML config file when it exists; a missing
// file just means defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}
	_, err := toml.DecodeFile(path, &c)
	return c, err
}
