package converter

// Polarity tells a FlagCursor how a stored bit maps to an enabled flag
type Polarity uint8

const (
	// Inverted flags are stored as "disabled" bits: set means off
	Inverted Polarity = iota
	// Direct flags are stored as-is: set means on
	Direct
)

// FlagBitsPerByte is the number of flags packed into one flag byte.
// Bit 7 stays clear so the byte remains a valid SysEx data byte.
const FlagBitsPerByte = 7

// FlagStride is the distance in bytes between consecutive flag bytes
const FlagStride = 8

// FlagCursor walks a sequence of boolean flags packed 7 per byte,
// with flag bytes FlagStride bytes apart.
type FlagCursor struct {
	Offset int
	Bit    int
}

// Read returns the flag under the cursor and advances
func (c *FlagCursor) Read(data []byte, p Polarity) bool {
	mask := byte(1) << c.Bit
	set := data[c.Offset]&mask == mask
	c.Advance()
	if p == Inverted {
		return !set
	}
	return set
}

// Write stores the flag under the cursor and advances.
// Only the addressed bit is modified.
func (c *FlagCursor) Write(data []byte, p Polarity, v bool) {
	if p == Inverted {
		v = !v
	}
	mask := byte(1) << c.Bit
	if v {
		data[c.Offset] |= mask
	} else {
		data[c.Offset] &^= mask
	}
	c.Advance()
}

// Advance moves to the next flag without touching the buffer
func (c *FlagCursor) Advance() {
	c.Bit++
	if c.Bit >= FlagBitsPerByte {
		c.Bit = 0
		c.Offset += FlagStride
	}
}

// ValueCursor walks a sequence of single-byte values, skipping the
// padding byte that follows every seventh value.
type ValueCursor struct {
	Offset int
}

// Read returns the value under the cursor and advances
func (c *ValueCursor) Read(data []byte) uint8 {
	v := data[c.Offset]
	c.Advance()
	return v
}

// Write stores v under the cursor and advances
func (c *ValueCursor) Write(data []byte, v uint8) {
	data[c.Offset] = v
	c.Advance()
}

// Advance moves to the next value slot.
// Bytes at offsets 6+8n are skipped; they hold flags, not values.
func (c *ValueCursor) Advance() {
	c.Offset++
	if (c.Offset-6)%8 == 0 {
		c.Offset++
	}
}
