package ad9959

import "math/bits"

// Channels is a CSR channel-enable mask. Values combine with |.
type Channels uint8

const (
	ChannelNone Channels = 0x00
	Channel0    Channels = 0x10
	Channel1    Channels = 0x20
	Channel2    Channels = 0x40
	Channel3    Channels = 0x80
	ChannelAll  Channels = 0xF0

	// Never a valid mask; forces the next SelectChannels to reach the bus.
	channelsUnknown Channels = 0xFF
)

// NumChannels is the number of DDS cores on the chip.
const NumChannels = 4

// ChannelN returns the mask for channel index n (0..3).
func ChannelN(n int) (Channels, bool) {
	if n < 0 || n >= NumChannels {
		return ChannelNone, false
	}
	return Channel0 << uint(n), true
}

// Count returns how many channels the mask selects.
func (c Channels) Count() int { return bits.OnesCount8(uint8(c)) }

// Has reports whether every channel in o is in c.
func (c Channels) Has(o Channels) bool { return c&o == o }

// Index returns the channel index of a single-channel mask.
func (c Channels) Index() (int, bool) {
	if c&^ChannelAll != 0 || c.Count() != 1 {
		return 0, false
	}
	return bits.TrailingZeros8(uint8(c)) - 4, true
}

// SelectChannels makes subsequent channel register accesses target c. The CSR
// write is skipped when c already matches the cached selection.
func (d *Device) SelectChannels(c Channels) error {
	c &= ChannelAll
	if c == d.channels {
		return nil
	}
	if err := d.write(CSR, uint32(c)|csrIOMode3Wire); err != nil {
		// Device state is unknown after a failed write.
		d.channels = channelsUnknown
		return err
	}
	d.channels = c
	return nil
}

// Selected returns the cached channel selection. After Reset or a failed
// CSR write it returns 0xFF, which matches no valid mask.
func (d *Device) Selected() Channels { return d.channels }

// invalidateChannels forces the next SelectChannels onto the bus.
func (d *Device) invalidateChannels() { d.channels = channelsUnknown }
