package main

import (
	"os"
	"strconv"
)

type Config struct {
	MountDir string // removable medium mount point
	LogFile  string // CSV file name on the medium
	I2CBus   string // periph bus name, empty = first available
	LEDPin   string // status LED pin name
	IRAddr   uint16 // thermopile bus address; the RTC address is fixed
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvAddr(k string, d uint16) uint16 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 0, 16); err == nil {
			return uint16(n)
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		MountDir: getenv("MOUNT_DIR", "/mnt/sd"),
		LogFile:  getenv("LOG_FILE", "temps.csv"),
		I2CBus:   getenv("I2C_BUS", ""),
		LEDPin:   getenv("LED_PIN", "GPIO17"),
		IRAddr:   getenvAddr("IR_ADDR", 0x5a),
	}
}
