package ds3231

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestNow(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// probe in New
			{Addr: 0x68, W: []byte{0x00}, R: []byte{0x00}},
			// 2026-08-29 16:09:05, registers in BCD
			{Addr: 0x68, W: []byte{0x00}, R: []byte{0x05, 0x09, 0x16, 0x06, 0x29, 0x08, 0x26}},
		},
		DontPanic: true,
	}
	d, err := New(bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := d.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	want := time.Date(2026, time.August, 29, 16, 9, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		name  string
		msb   byte
		lsb   byte
		wantC float64
	}{
		{name: "positive with fraction", msb: 0x19, lsb: 0xc0, wantC: 25.75},
		{name: "exact integer", msb: 0x1c, lsb: 0x00, wantC: 28.0},
		{name: "negative", msb: 0xff, lsb: 0xc0, wantC: -0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Playback{
				Ops: []i2ctest.IO{
					{Addr: 0x68, W: []byte{0x00}, R: []byte{0x00}},
					{Addr: 0x68, W: []byte{0x11}, R: []byte{tt.msb, tt.lsb}},
				},
				DontPanic: true,
			}
			d, err := New(bus)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			temp, err := d.Temperature()
			if err != nil {
				t.Fatalf("Temperature: %v", err)
			}
			if got := temp.Celsius(); got != tt.wantC {
				t.Errorf("Temperature() = %v °C, want %v °C", got, tt.wantC)
			}
		})
	}
}

func TestNewProbeFailure(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	if _, err := New(bus); err == nil {
		t.Fatal("New should fail when the chip does not answer")
	}
}
