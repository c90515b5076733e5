// Package mlx90614 provides a driver for the Melexis MLX90614 infrared
// thermometer.
//
// The sensor pairs a thermopile with a 17-bit ADC and reports both the
// temperature of the object in its field of view and its own die (ambient)
// temperature. Readings are linearized on-chip and exposed over SMBus as
// absolute temperatures in units of 0.02 K.
//
// Datasheet: https://www.melexis.com/en/documents/documentation/datasheets/datasheet-mlx90614
package mlx90614

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddr is the factory-default SMBus address.
const DefaultAddr uint16 = 0x5a

const (
	ramTa    = 0x06 // ambient (die) temperature
	ramTobj1 = 0x07 // object temperature, primary pixel
	eepromKe = 0x24 // emissivity correction coefficient
)

// ErrFlag is returned when the sensor raises the error flag in a
// measurement word, meaning the value must be discarded.
var ErrFlag = errors.New("mlx90614: measurement error flag set")

// Dev is a handle to an MLX90614 on an I²C/SMBus bus.
type Dev struct {
	c i2c.Dev
}

// New returns a handle to the sensor at addr. It performs one ambient read
// as a presence probe and fails if the part does not answer.
func New(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{c: i2c.Dev{Bus: b, Addr: addr}}
	if _, err := d.readWord(ramTa); err != nil {
		return nil, fmt.Errorf("mlx90614: chip not responding: %w", err)
	}
	return d, nil
}

// Ambient reads the die temperature.
func (d *Dev) Ambient() (physic.Temperature, error) {
	return d.readTemp(ramTa)
}

// Object reads the temperature of the object in the sensor's field of view.
func (d *Dev) Object() (physic.Temperature, error) {
	return d.readTemp(ramTobj1)
}

// Emissivity reads the programmed emissivity coefficient, in [0,1].
func (d *Dev) Emissivity() (float64, error) {
	raw, err := d.readWord(eepromKe)
	if err != nil {
		return 0, err
	}
	return float64(raw) / 65535, nil
}

// SetEmissivity programs the emissivity coefficient. This is a one-time
// calibration step run during device preparation, not in normal operation;
// the EEPROM cell must be erased before the new value is written.
func (d *Dev) SetEmissivity(e float64) error {
	if e <= 0 || e > 1 {
		return fmt.Errorf("mlx90614: emissivity %v out of (0,1]", e)
	}
	raw := uint16(e*65535 + 0.5)
	if err := d.writeWord(eepromKe, 0); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond) // EEPROM erase time
	if err := d.writeWord(eepromKe, raw); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (d *Dev) readTemp(reg byte) (physic.Temperature, error) {
	raw, err := d.readWord(reg)
	if err != nil {
		return 0, err
	}
	if raw&0x8000 != 0 {
		return 0, ErrFlag
	}
	// Absolute temperature in 0.02 K steps.
	return physic.Temperature(raw) * 20 * physic.MilliKelvin, nil
}

// readWord performs an SMBus read-word transaction. The trailing PEC byte
// is read but not verified.
func (d *Dev) readWord(reg byte) (uint16, error) {
	var buf [3]byte
	if err := d.c.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

// writeWord performs an SMBus write-word transaction. The sensor rejects
// writes without a valid PEC.
func (d *Dev) writeWord(reg byte, v uint16) error {
	lsb, msb := byte(v), byte(v>>8)
	pec := crc8([]byte{byte(d.c.Addr << 1), reg, lsb, msb})
	return d.c.Tx([]byte{reg, lsb, msb, pec}, nil)
}

// crc8 computes the SMBus PEC (CRC-8, polynomial x^8+x^2+x+1).
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
