package bytestore

import "strings"

// DeviceAddr is the 7-bit bus address of the memory device.
const DeviceAddr = 0x51

// Flags are the controller status bits.
type Flags uint8

// Status flags.
const (
	// Busy is set while a transfer holds the bus.
	Busy Flags = 1 << iota
	// TXIS is set when the transmit register accepts the next byte.
	TXIS
	// RXNE is set when a received byte is ready.
	RXNE
	// TC is set when a transfer without AutoEnd completed its bytes.
	TC
	// STOPF is set when a stop condition ended the transfer.
	STOPF
	// NACKF is set when the target did not acknowledge.
	NACKF
)

var flagNames = []string{"BUSY", "TXIS", "RXNE", "TC", "STOPF", "NACKF"}

func (f Flags) String() string {
	var names []string
	for i, name := range flagNames {
		if f&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// Transfer configures a bus transfer.
type Transfer struct {
	// Target is the 7-bit device address.
	Target uint8
	// NBytes is the number of bytes to transfer.
	NBytes int
	// Read selects the read direction.
	Read bool
	// AutoEnd generates a stop after NBytes. Otherwise the transfer is
	// held open with TC set, ready for a repeated start.
	AutoEnd bool
}

// Controller is a bus controller addressing a serial memory device.
type Controller interface {
	Status() Flags
	Clear(Flags)
	// Start generates a start (or repeated start) for the transfer.
	Start(Transfer)
	WriteData(byte)
	ReadData() byte
}
