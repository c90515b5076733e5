// Package datalogger implements the sensing-and-logging control loop: a
// startup self-test over every peripheral, then a fixed-period cycle of
// read clock, read thermopile, append one CSV record to the removable
// medium, forever.
package datalogger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/gmontanari/thermolog_project/internal/model"
)

const (
	samplePeriod  = 60 * time.Second
	retryInterval = time.Second
	settleDelay   = time.Second
	blinkPhase    = 200 * time.Millisecond
	blinkPulses   = 3
)

var errNoMedium = errors.New("storage medium not present")

// FatalError is a failed startup self-test stage. There is no recovery: the
// caller parks the process with the indicator latched on, and only a power
// cycle clears it.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("self-test failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("self-test failed at %s", e.Stage)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Controller owns one of each peripheral wrapper and runs the control loop.
// It is strictly sequential; every operation blocks the single control
// thread for its duration.
type Controller struct {
	clock   Clock
	sensor  ThermalSensor
	storage Storage
	ind     Indicator
	log     logrus.FieldLogger

	samplePeriod  time.Duration
	retryInterval time.Duration
	settleDelay   time.Duration
	blinkPhase    time.Duration
}

func NewController(clock Clock, sensor ThermalSensor, storage Storage, ind Indicator, log logrus.FieldLogger) *Controller {
	return &Controller{
		clock:         clock,
		sensor:        sensor,
		storage:       storage,
		ind:           ind,
		log:           log.WithField("component", "controller"),
		samplePeriod:  samplePeriod,
		retryInterval: retryInterval,
		settleDelay:   settleDelay,
		blinkPhase:    blinkPhase,
	}
}

// Run executes the startup self-test and, if it passes, the steady-state
// loop until ctx is cancelled (the power-off analog). A *FatalError return
// means a failed self-test stage; the indicator is left on.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.selfTest(ctx); err != nil {
		return err
	}
	c.ind.Set(false)
	c.log.Info("ready")
	return c.loop(ctx)
}

// selfTest is the fatal-halt startup sequence: any failure is terminal.
// A dead peripheral at startup means mis-wiring or a dead part, and must be
// caught visibly before deployment.
func (c *Controller) selfTest(ctx context.Context) error {
	c.ind.Set(true)
	c.log.Info("self-test started")

	if !c.clock.Probe() {
		return &FatalError{Stage: "clock"}
	}
	c.log.Info("clock ok")

	if !c.sensor.Init() {
		return &FatalError{Stage: "sensor"}
	}
	c.log.Info("sensor ok")

	if !c.storage.IsPresent() {
		return &FatalError{Stage: "storage medium"}
	}
	if err := c.storage.EnsureHeader(model.Header); err != nil {
		return &FatalError{Stage: "log file", Err: err}
	}
	if err := c.storage.CheckWritable(); err != nil {
		return &FatalError{Stage: "log file", Err: err}
	}
	c.log.Info("storage ok")

	select {
	case <-time.After(c.settleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// loop is the steady-state cycle. It has no exit condition of its own;
// the only transient failures are an absent medium (blocking retry) and a
// failed read or append (drop the record, signal, continue).
func (c *Controller) loop(ctx context.Context) error {
	for {
		c.cycle(ctx)
		select {
		case <-time.After(c.samplePeriod):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) cycle(ctx context.Context) {
	// Clock and sensor are read in the same iteration so the record is
	// captured atomically.
	ts := c.clock.Now()
	obj, objErr := c.sensor.ReadObject()
	amb, ambErr := c.sensor.ReadAmbient()
	if objErr != nil || ambErr != nil {
		c.log.WithField("object_err", objErr).WithField("ambient_err", ambErr).
			Warn("sensor read failed, dropping record")
		c.signalWriteFailure()
		return
	}

	r := model.Reading{Timestamp: ts, ObjectC: obj, AmbientC: amb}
	line := r.Record()
	c.log.WithField("record", line).Info("sampled")

	if err := c.waitForMedium(ctx); err != nil {
		return
	}
	if err := c.storage.Append(line); err != nil {
		c.log.WithError(err).Warn("append failed, record dropped")
		c.signalWriteFailure()
		return
	}
	c.log.Info("record written")
}

// waitForMedium blocks until the medium reports present, polling once per
// retry interval, unbounded. The device deliberately stalls logging rather
// than dropping data while the card is out.
func (c *Controller) waitForMedium(ctx context.Context) error {
	bo := backoff.WithContext(backoff.NewConstantBackOff(c.retryInterval), ctx)
	return backoff.Retry(func() error {
		if c.storage.IsPresent() {
			return nil
		}
		c.log.Warn("no medium present, waiting")
		return errNoMedium
	}, bo)
}

// signalWriteFailure runs the indicator failure protocol: three short
// on/off pulses, then back to off.
func (c *Controller) signalWriteFailure() {
	for i := 0; i < blinkPulses; i++ {
		c.ind.Set(true)
		time.Sleep(c.blinkPhase)
		c.ind.Set(false)
		time.Sleep(c.blinkPhase)
	}
}
