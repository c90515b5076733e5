// Datalogger samples an infrared thermopile once a minute and appends a
// timestamped CSV record to a log file on removable storage.
//
// Usage: datalogger [-mount-dir=/mnt/sd] [-log-file=temps.csv] [-led-pin=GPIO17]
//
// Configuration comes from the environment (MOUNT_DIR, LOG_FILE, I2C_BUS,
// LED_PIN, IR_ADDR), with flags taking precedence. The sampling interval is
// fixed; the device does exactly one thing until powered off.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/gmontanari/thermolog_project/internal/drivers/ds3231"
	"github.com/gmontanari/thermolog_project/internal/drivers/mlx90614"
	"github.com/gmontanari/thermolog_project/internal/services/datalogger"
)

func main() {
	cfg := loadConfig()
	mountDir := flag.String("mount-dir", cfg.MountDir, "removable medium mount point")
	logFile := flag.String("log-file", cfg.LogFile, "log file name on the medium")
	i2cBus := flag.String("i2c-bus", cfg.I2CBus, "I2C bus name (empty = first available)")
	ledPin := flag.String("led-pin", cfg.LEDPin, "status LED pin name")
	flag.Parse()

	// The log output doubles as the diagnostic serial channel.
	logg := logrus.New()
	logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logg.Info("diagnostics online")

	if _, err := host.Init(); err != nil {
		logg.WithError(err).Fatal("host init failed")
	}
	bus, err := i2creg.Open(*i2cBus)
	if err != nil {
		logg.WithError(err).Fatal("opening I2C bus failed")
	}
	defer bus.Close()

	pin := gpioreg.ByName(*ledPin)
	if pin == nil {
		logg.WithField("pin", *ledPin).Fatal("status LED pin not found")
	}
	ind := datalogger.NewLEDIndicator(pin)
	// Solid-on immediately, before any peripheral can halt the self-test.
	ind.Set(true)

	rtc, err := ds3231.New(bus)
	if err != nil {
		halt(logg, ind, err)
	}
	ir, err := mlx90614.New(bus, cfg.IRAddr)
	if err != nil {
		halt(logg, ind, err)
	}

	clock := datalogger.NewRTCClock(rtc, logg)
	sensor := datalogger.NewIRSensor(ir, logg)
	storage := datalogger.NewMediaLog(afero.NewOsFs(), *mountDir, *logFile, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := datalogger.NewController(clock, sensor, storage, ind, logg)
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		halt(logg, ind, err)
	}
	logg.Info("powered off")
}

// halt is the terminal state for startup failures: log the fault and park
// with the indicator latched on until the operator cuts power.
func halt(logg *logrus.Logger, ind *datalogger.LEDIndicator, err error) {
	ind.Set(true)
	logg.WithError(err).Error("halted; power-cycle required")
	select {}
}
