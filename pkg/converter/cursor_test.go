package converter

import "testing"

func TestFlagCursorAdvance(t *testing.T) {
	c := FlagCursor{Offset: 14}
	for i := 0; i < FlagBitsPerByte; i++ {
		c.Advance()
	}
	if c.Offset != 22 || c.Bit != 0 {
		t.Errorf("after 7 advances cursor = %+v, want {Offset:22 Bit:0}", c)
	}

	// One preset worth of flags
	c = FlagCursor{Offset: 14}
	data := make([]byte, 64)
	for i := 0; i < 16; i++ {
		c.Read(data, Inverted)
	}
	if c.Offset != 30 || c.Bit != 2 {
		t.Errorf("after 16 reads cursor = %+v, want {Offset:30 Bit:2}", c)
	}
}

func TestFlagCursorPolarity(t *testing.T) {
	data := []byte{0x05} // bits 0 and 2 set

	tests := []struct {
		bit      int
		polarity Polarity
		want     bool
	}{
		{0, Inverted, false},
		{0, Direct, true},
		{1, Inverted, true},
		{1, Direct, false},
		{2, Direct, true},
	}

	for _, tt := range tests {
		c := FlagCursor{Bit: tt.bit}
		if got := c.Read(data, tt.polarity); got != tt.want {
			t.Errorf("Read(bit %d, polarity %d) = %v, want %v", tt.bit, tt.polarity, got, tt.want)
		}
	}
}

func TestFlagCursorWriteTouchesOnlyItsBit(t *testing.T) {
	data := make([]byte, 24)
	data[0] = 0x80
	for i := 1; i < len(data); i++ {
		data[i] = 0xAA
	}
	data[8] = 0

	c := FlagCursor{}
	values := []bool{true, false, true, true, false, false, true}
	for _, v := range values {
		c.Write(data, Direct, v)
	}
	if data[0] != 0x80|0x4D {
		t.Errorf("flag byte = 0x%02X, want 0x%02X", data[0], 0x80|0x4D)
	}
	for i := 1; i < 8; i++ {
		if data[i] != 0xAA {
			t.Errorf("byte %d modified to 0x%02X", i, data[i])
		}
	}

	// Inverted writes store the complement
	c.Write(data, Inverted, true)
	c.Write(data, Inverted, false)
	if data[8] != 0x02 {
		t.Errorf("second flag byte = 0x%02X, want 0x02", data[8])
	}

	// Clearing a set bit
	c = FlagCursor{}
	c.Write(data, Direct, false)
	if data[0]&0x01 != 0 {
		t.Error("Write(false) did not clear bit 0")
	}
}

func TestValueCursorAdvance(t *testing.T) {
	c := ValueCursor{Offset: 7}
	var visited []int
	for i := 0; i < 16; i++ {
		visited = append(visited, c.Offset)
		c.Advance()
	}

	want := []int{7, 8, 9, 10, 11, 12, 13, 15, 16, 17, 18, 19, 20, 21, 23, 24}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited = %v, want %v", visited, want)
		}
	}
	if c.Offset != 25 {
		t.Errorf("after 16 advances offset = %d, want 25", c.Offset)
	}
}

func TestValueCursorReadWrite(t *testing.T) {
	data := make([]byte, 32)
	w := ValueCursor{Offset: 7}
	for i := 0; i < 14; i++ {
		w.Write(data, uint8(i+1))
	}
	if data[14] != 0 || data[22] != 0 {
		t.Errorf("padding bytes written: data[14]=%d data[22]=%d", data[14], data[22])
	}

	r := ValueCursor{Offset: 7}
	for i := 0; i < 14; i++ {
		if got := r.Read(data); got != uint8(i+1) {
			t.Errorf("Read() #%d = %d, want %d", i, got, i+1)
		}
	}
}

func TestCursorsSpanFullDump(t *testing.T) {
	flags := FlagCursor{Offset: 14}
	values := ValueCursor{Offset: 7}
	lastFlag, lastValue := 0, 0
	for i := 0; i < NumPresets*16; i++ {
		lastFlag = flags.Offset
		flags.Advance()
		lastValue = values.Offset
		values.Advance()
		if (lastValue-6)%8 == 0 {
			t.Fatalf("value cursor landed on flag byte %d", lastValue)
		}
	}
	if lastFlag != 1838 {
		t.Errorf("last flag byte = %d, want 1838", lastFlag)
	}
	if lastValue != 1834 {
		t.Errorf("last value byte = %d, want 1834", lastValue)
	}
}
