package datalogger

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"periph.io/x/conn/v3/physic"
)

type fakeThermopile struct {
	obj physic.Temperature
	amb physic.Temperature
	err error
}

func (f *fakeThermopile) Object() (physic.Temperature, error)  { return f.obj, f.err }
func (f *fakeThermopile) Ambient() (physic.Temperature, error) { return f.amb, f.err }

func celsius(c physic.Temperature) physic.Temperature {
	return physic.ZeroCelsius + c*physic.Kelvin
}

func newIRSensor(dev *fakeThermopile) *IRSensor {
	logger, _ := test.NewNullLogger()
	return NewIRSensor(dev, logger)
}

func TestIRSensorReads(t *testing.T) {
	s := newIRSensor(&fakeThermopile{obj: celsius(36), amb: celsius(25)})
	if !s.Init() {
		t.Fatal("Init should succeed with plausible readings")
	}
	obj, err := s.ReadObject()
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if obj < 35.99 || obj > 36.01 {
		t.Errorf("ReadObject() = %v, want ≈36", obj)
	}
	amb, err := s.ReadAmbient()
	if err != nil {
		t.Fatalf("ReadAmbient: %v", err)
	}
	if amb < 24.99 || amb > 25.01 {
		t.Errorf("ReadAmbient() = %v, want ≈25", amb)
	}
}

func TestIRSensorImplausibleReading(t *testing.T) {
	// 0 K is far below the thermopile's measurable span; a shorted bus
	// reads as all zeros.
	s := newIRSensor(&fakeThermopile{obj: 0, amb: celsius(25)})
	if _, err := s.ReadObject(); err == nil {
		t.Error("ReadObject should reject a reading outside the sensor span")
	}
	if _, err := s.ReadAmbient(); err != nil {
		t.Errorf("ReadAmbient: %v", err)
	}
}

func TestIRSensorBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	dev := &fakeThermopile{err: errors.New("bus fault")}
	s := newIRSensor(dev)

	for i := 0; i < 3; i++ {
		if _, err := s.ReadObject(); err == nil {
			t.Fatalf("read %d should fail", i)
		}
	}
	// Fourth read must be rejected by the open breaker without touching
	// the device.
	dev.err = nil
	dev.obj = celsius(36)
	if _, err := s.ReadObject(); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("ReadObject() error = %v, want ErrOpenState", err)
	}
}

func TestIRSensorInitFailsOnBadAmbient(t *testing.T) {
	s := newIRSensor(&fakeThermopile{amb: 0})
	if s.Init() {
		t.Error("Init should fail when the ambient reading is implausible")
	}
}
