// Package eeprom models a 24LC256-style serial EEPROM as seen through a
// bus controller.
package eeprom

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/bytestore"
)

// Memory geometry.
const (
	Size     = 0x8000
	PageSize = 0x40
)

// State is the position of the device within a transfer.
type State int

// States.
const (
	Stopped State = iota
	AddressHi
	AddressLo
	Data
)

// Device is an in-memory EEPROM with a bus controller in front of it.
// It implements bytestore.Controller. When Path is set, the memory
// image is saved there after every write transfer.
type Device struct {
	// Target is the 7-bit address the device answers to.
	Target uint8
	Path   string
	// Disconnected devices never raise any flag.
	Disconnected bool

	lock      sync.Mutex
	data      []byte
	address   uint16
	state     State
	read      bool
	autoEnd   bool
	remaining int
	flags     bytestore.Flags
	rx        byte
	dirty     bool
}

// New creates a blank device. All bytes read 0xff.
func New() *Device {
	d := &Device{
		Target: bytestore.DeviceAddr,
		data:   make([]byte, Size),
	}
	for i := range d.data {
		d.data[i] = 0xff
	}
	return d
}

// Open creates a device backed by an image file. A missing file leaves
// the device blank.
func Open(path string) (*Device, error) {
	d := New()
	d.Path = path
	if err := d.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return d, nil
}

// Load reads the image file into memory.
func (d *Device) Load() error {
	image, err := os.ReadFile(d.Path)
	if err != nil {
		return err
	}
	if len(image) != Size {
		glog.Warningf("eeprom image %s is %d bytes, expect %d", d.Path, len(image), Size)
	}
	d.lock.Lock()
	copy(d.data, image)
	d.lock.Unlock()
	glog.Infof("eeprom image loaded from %s", d.Path)
	return nil
}

// Save writes memory to the image file.
func (d *Device) Save() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.save()
}

func (d *Device) save() error {
	if err := os.WriteFile(d.Path, d.data, 0644); err != nil {
		return fmt.Errorf("save eeprom image: %w", err)
	}
	glog.V(2).Infof("eeprom image saved to %s", d.Path)
	return nil
}

// At reads memory directly.
func (d *Device) At(addr uint16) byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.data[addr%Size]
}

// Set writes memory directly.
func (d *Device) Set(addr uint16, v byte) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.data[addr%Size] = v
}

// State returns the transfer state.
func (d *Device) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.state
}

// Status implements bytestore.Controller.
func (d *Device) Status() bytestore.Flags {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.flags
}

// Clear implements bytestore.Controller.
func (d *Device) Clear(f bytestore.Flags) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.flags &^= f
}

// Start implements bytestore.Controller.
func (d *Device) Start(t bytestore.Transfer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.Disconnected {
		return
	}
	if t.Target != d.Target || t.NBytes <= 0 {
		d.flags |= bytestore.NACKF
		d.stop()
		return
	}
	d.flags = (d.flags | bytestore.Busy) &^ (bytestore.TC | bytestore.TXIS | bytestore.RXNE)
	d.read, d.autoEnd, d.remaining = t.Read, t.AutoEnd, t.NBytes
	if t.Read {
		d.state = Data
		d.rx = d.get()
		d.flags |= bytestore.RXNE
		return
	}
	d.state = AddressHi
	d.flags |= bytestore.TXIS
}

// WriteData implements bytestore.Controller.
func (d *Device) WriteData(b byte) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.read || d.flags&bytestore.TXIS == 0 {
		return
	}
	d.flags &^= bytestore.TXIS
	switch d.state {
	case AddressHi:
		d.address = uint16(b) << 8
		d.state = AddressLo
	case AddressLo:
		d.address = (d.address | uint16(b)) % Size
		d.state = Data
	case Data:
		d.put(b)
	}
	d.next()
}

// ReadData implements bytestore.Controller.
func (d *Device) ReadData() byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.read || d.flags&bytestore.RXNE == 0 {
		return 0
	}
	d.flags &^= bytestore.RXNE
	b := d.rx
	d.next()
	if d.remaining > 0 {
		d.rx = d.get()
		d.flags |= bytestore.RXNE
	}
	return b
}

// next counts a transferred byte and ends the transfer after the last.
func (d *Device) next() {
	d.remaining--
	if d.remaining > 0 {
		if !d.read {
			d.flags |= bytestore.TXIS
		}
		return
	}
	if d.autoEnd {
		d.stop()
	} else {
		d.flags |= bytestore.TC
	}
}

func (d *Device) stop() {
	d.state = Stopped
	d.flags = (d.flags | bytestore.STOPF) &^ (bytestore.Busy | bytestore.TC | bytestore.TXIS)
	if d.dirty && d.Path != "" {
		if err := d.save(); err != nil {
			glog.Error(err)
		}
	}
	d.dirty = false
}

func (d *Device) put(v byte) {
	d.data[d.address] = v
	d.dirty = true
	// page writes wrap within the page
	if d.address&(PageSize-1) == PageSize-1 {
		d.address &^= PageSize - 1
	} else {
		d.address++
	}
}

func (d *Device) get() byte {
	v := d.data[d.address]
	d.address = (d.address + 1) % Size
	return v
}
