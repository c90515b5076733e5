// Package ds3231 provides a driver for the Maxim DS3231 battery-backed
// real-time clock.
//
// The chip keeps calendar time in seven BCD registers and exposes the die
// temperature of its internal TCXO as a signed 8.2 fixed-point register
// pair, which doubles as a cheap liveness check for the part.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS3231.pdf
package ds3231

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Addr is the fixed I²C address of the DS3231.
const Addr uint16 = 0x68

const (
	regSeconds = 0x00
	regTemp    = 0x11
)

// Dev is a handle to a DS3231 on an I²C bus.
type Dev struct {
	c i2c.Dev
}

// New returns a handle to the clock. It performs one probe transaction and
// fails if the chip does not answer.
func New(b i2c.Bus) (*Dev, error) {
	d := &Dev{c: i2c.Dev{Bus: b, Addr: Addr}}
	var buf [1]byte
	if err := d.c.Tx([]byte{regSeconds}, buf[:]); err != nil {
		return nil, fmt.Errorf("ds3231: chip not responding: %w", err)
	}
	return d, nil
}

// Now reads the seven timekeeping registers in one burst and decodes them.
// The two-digit year register is interpreted relative to 2000.
func (d *Dev) Now() (time.Time, error) {
	var buf [7]byte
	if err := d.c.Tx([]byte{regSeconds}, buf[:]); err != nil {
		return time.Time{}, fmt.Errorf("ds3231: reading time: %w", err)
	}
	sec := fromBCD(buf[0] & 0x7f)
	min := fromBCD(buf[1] & 0x7f)
	hour := fromBCD(buf[2] & 0x3f) // 24h mode
	day := fromBCD(buf[4] & 0x3f)
	month := fromBCD(buf[5] & 0x1f) // mask century bit
	year := 2000 + fromBCD(buf[6])
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), nil
}

// Temperature reads the die temperature. Resolution is 0.25 °C.
func (d *Dev) Temperature() (physic.Temperature, error) {
	var buf [2]byte
	if err := d.c.Tx([]byte{regTemp}, buf[:]); err != nil {
		return 0, fmt.Errorf("ds3231: reading temperature: %w", err)
	}
	// Signed 10-bit value in quarter degrees: MSB integer part, top two
	// bits of LSB fractional part.
	raw := int16(int8(buf[0]))<<2 | int16(buf[1]>>6)
	return physic.ZeroCelsius + physic.Temperature(raw)*250*physic.MilliKelvin, nil
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}
