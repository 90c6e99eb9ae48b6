package converter

import (
	"bytes"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDIConverter renders presets as Standard MIDI Files
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
	sweepSteps      int
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
		sweepSteps:      8,
	}
}

// GenerateMIDI renders the messages a preset sends when its pedal is pressed.
//
// Program changes, control changes and the note are emitted on beat one, in
// the order the device sends them. Enabled expression pedals follow as a
// min-max-min sweep of their controller, one bar each.
func (m *MIDIConverter) GenerateMIDI(p Preset, ch Channels) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / m.tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// 4/4
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	for i, pc := range p.ProgramChanges {
		if pc.Enabled {
			track.Add(0, midi.ProgramChange(channel(ch.ProgramChange[i]), pc.Program&0x7F))
		}
	}
	for i, cc := range p.ControlChanges {
		if cc.Enabled {
			track.Add(0, midi.ControlChange(channel(ch.ControlChange[i]), cc.Controller&0x7F, cc.Value&0x7F))
		}
	}

	quarter := uint32(m.ticksPerQuarter)
	var pending uint32
	if p.Note.Enabled {
		key := p.Note.Value & 0x7F
		track.Add(0, midi.NoteOn(channel(ch.Note), key, 100))
		track.Add(quarter, midi.NoteOff(channel(ch.Note), key))
	} else {
		pending = quarter
	}

	bar := quarter * 4
	for _, exp := range []struct {
		e  Expression
		ch uint8
	}{{p.ExpressionA, ch.ExpressionA}, {p.ExpressionB, ch.ExpressionB}} {
		if !exp.e.Enabled {
			continue
		}
		points := m.sweep(exp.e.Min&0x7F, exp.e.Max&0x7F)
		step := bar / uint32(len(points))
		for _, v := range points {
			track.Add(pending, midi.ControlChange(channel(exp.ch), exp.e.Controller&0x7F, v))
			pending = step
		}
	}

	track.Close(pending)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// sweep returns controller values rising from lo to hi and back
func (m *MIDIConverter) sweep(lo, hi uint8) []uint8 {
	n := m.sweepSteps
	up := make([]uint8, 0, n+1)
	for i := 0; i <= n; i++ {
		v := int(lo) + (int(hi)-int(lo))*i/n
		up = append(up, uint8(v))
	}
	points := append([]uint8(nil), up...)
	for i := len(up) - 2; i >= 0; i-- {
		points = append(points, up[i])
	}
	return points
}

// WriteMIDIFile renders preset index of cfg to a file
func (m *MIDIConverter) WriteMIDIFile(cfg *Config, index int, filename string) error {
	if index < 0 || index >= NumPresets {
		return fmt.Errorf("preset index %d out of range 0-%d", index, NumPresets-1)
	}
	data, err := m.GenerateMIDI(cfg.Presets[index], cfg.Channels)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// channel maps a stored channel number to a MIDI channel (0-15)
func channel(c uint8) uint8 {
	return c & 0x0F
}
