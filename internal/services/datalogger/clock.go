package datalogger

import (
	"github.com/sirupsen/logrus"

	"github.com/gmontanari/thermolog_project/internal/drivers/ds3231"
	"github.com/gmontanari/thermolog_project/internal/model"
)

// rtcProbeFloorC is the health-probe sentinel: the DS3231 is rated down to
// -40 °C, so a die temperature at or below this means the register read
// returned garbage or the part is absent.
const rtcProbeFloorC = -40.0

// Clock provides the current wall-clock time and a startup health probe.
type Clock interface {
	// Now returns the current timestamp. After a successful Probe there
	// is no error path; a bus fault surfaces as the zero sentinel.
	Now() model.Timestamp
	// Probe reports whether the clock peripheral is responsive.
	Probe() bool
}

// RTCClock is a Clock backed by a DS3231.
type RTCClock struct {
	dev *ds3231.Dev
	log logrus.FieldLogger
}

func NewRTCClock(dev *ds3231.Dev, log logrus.FieldLogger) *RTCClock {
	return &RTCClock{dev: dev, log: log.WithField("component", "clock")}
}

func (c *RTCClock) Now() model.Timestamp {
	t, err := c.dev.Now()
	if err != nil {
		// The battery-backed clock keeps time through power loss; a
		// read fault here means a wedged bus. Startup is responsible
		// for catching a dead part, so only the sentinel is returned.
		c.log.WithError(err).Warn("clock read failed")
		return model.Timestamp{}
	}
	return model.NewTimestamp(t)
}

// Probe reads the RTC's die-temperature register. An implausibly low value
// or a bus error marks the peripheral as absent.
func (c *RTCClock) Probe() bool {
	temp, err := c.dev.Temperature()
	if err != nil {
		c.log.WithError(err).Error("clock health probe failed")
		return false
	}
	if temp.Celsius() <= rtcProbeFloorC {
		c.log.WithField("temp_c", temp.Celsius()).Error("clock die temperature implausible")
		return false
	}
	return true
}
