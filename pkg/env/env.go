// Package env provides the common environment of the host programs:
// flags, bus URLs, node description files and the node GUID.
package env

import (
	"flag"
	"os"
)

// Config provides common options of the host programs.
type Config struct {
	// BusURL selects the bus, see OpenBus.
	BusURL string
	// MQTTURL is the broker of the gateway, e.g. mqtt://host:1883/swali/
	MQTTURL string
	// StorePath is the file backing the node persistent store.
	StorePath string
	// NodeFile is an optional YAML node description.
	NodeFile string
	// CapturePath is an optional bus capture log.
	CapturePath string
}

var defaultConfig = Config{
	BusURL:    "loop://default",
	MQTTURL:   "mqtt://localhost:1883/swali/",
	StorePath: "swali.eeprom",
}

func init() {
	if val := os.Getenv("SWALI_BUS"); val != "" {
		defaultConfig.BusURL = val
	}
	if val := os.Getenv("SWALI_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("SWALI_STORE"); val != "" {
		defaultConfig.StorePath = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BusURL, "bus", defaultConfig.BusURL, "Bus URL: loop://NAME, slcan:///dev/tty?bitrate=125000, ws://host/path or tcp://host:port.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.StorePath, "store", defaultConfig.StorePath, "Persistent store file.")
	flag.StringVar(&defaultConfig.NodeFile, "node", defaultConfig.NodeFile, "Node description file (YAML).")
	flag.StringVar(&defaultConfig.CapturePath, "capture", defaultConfig.CapturePath, "Write a bus capture log to this file.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
