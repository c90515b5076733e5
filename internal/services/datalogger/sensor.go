package datalogger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"periph.io/x/conn/v3/physic"
)

// Measurable span of the thermopile. Readings outside it are treated as
// failed reads and the cycle's record is dropped.
const (
	minObjectC  = -70.0
	maxObjectC  = 380.0
	minAmbientC = -40.0
	maxAmbientC = 125.0
)

// ThermalSensor provides object and ambient temperature reads in Celsius.
type ThermalSensor interface {
	// Init probes the peripheral; must succeed once before the first read.
	Init() bool
	ReadObject() (float64, error)
	ReadAmbient() (float64, error)
}

// thermopileDev is the driver surface IRSensor needs; *mlx90614.Dev
// satisfies it.
type thermopileDev interface {
	Object() (physic.Temperature, error)
	Ambient() (physic.Temperature, error)
}

// IRSensor wraps the thermopile driver with plausibility checks behind a
// circuit breaker: a wedged or disconnected sensor trips the breaker open
// after a few consecutive bad reads instead of hammering the bus every
// cycle, and is re-probed after a cooldown.
type IRSensor struct {
	dev thermopileDev
	cb  *gobreaker.CircuitBreaker
	log logrus.FieldLogger
}

func NewIRSensor(dev thermopileDev, log logrus.FieldLogger) *IRSensor {
	l := log.WithField("component", "sensor")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "thermopile",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			l.Warnf("breaker %s -> %s", from, to)
		},
	})
	return &IRSensor{dev: dev, cb: cb, log: l}
}

func (s *IRSensor) Init() bool {
	// The driver already answered its presence probe at construction;
	// confirm with one full plausible-read cycle.
	if _, err := s.ReadAmbient(); err != nil {
		s.log.WithError(err).Error("sensor initialization read failed")
		return false
	}
	return true
}

func (s *IRSensor) ReadObject() (float64, error) {
	return s.read(func() (physic.Temperature, error) { return s.dev.Object() }, minObjectC, maxObjectC)
}

func (s *IRSensor) ReadAmbient() (float64, error) {
	return s.read(func() (physic.Temperature, error) { return s.dev.Ambient() }, minAmbientC, maxAmbientC)
}

func (s *IRSensor) read(f func() (physic.Temperature, error), min, max float64) (float64, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		temp, err := f()
		if err != nil {
			return 0.0, err
		}
		c := temp.Celsius()
		if c < min || c > max {
			return 0.0, fmt.Errorf("reading %.2f °C outside [%.0f, %.0f]", c, min, max)
		}
		return c, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
