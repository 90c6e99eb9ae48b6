// Package devices provides device-specific format handlers
package devices

import (
	"errors"
	"fmt"

	"github.com/james-see/fcbtool/pkg/converter"
)

// FCB1010 dump constants
const (
	FCB1010DeviceID = 0x01 // Device ID in SysEx
	FCB1010ModelID  = 0x0C // FCB1010 model ID
	FCB1010DumpType = 0x0F // Full configuration dump
	DumpSize        = 2352
)

// Fixed positions within the dump
const (
	flagStart      = 14
	valueStart     = 7
	reservedStart  = 1839
	reservedEnd    = 2310 // inclusive
	reservedFill   = 0x7F
	signatureStart = 1
)

// Signature is the manufacturer/device identity in bytes 1-6
var Signature = [6]byte{0x00, 0x20, 0x32, FCB1010DeviceID, FCB1010ModelID, FCB1010DumpType}

type flagField struct {
	name     string
	polarity converter.Polarity
	field    func(p *converter.Preset) *bool // nil for unused bits
}

// flagLayout is the order in which the flag cursor visits one preset
var flagLayout = []flagField{
	{"pc1", converter.Inverted, func(p *converter.Preset) *bool { return &p.ProgramChanges[0].Enabled }},
	{"pc2", converter.Inverted, func(p *converter.Preset) *bool { return &p.ProgramChanges[1].Enabled }},
	{"pc3", converter.Inverted, func(p *converter.Preset) *bool { return &p.ProgramChanges[2].Enabled }},
	{"pc4", converter.Inverted, func(p *converter.Preset) *bool { return &p.ProgramChanges[3].Enabled }},
	{"pc5", converter.Inverted, func(p *converter.Preset) *bool { return &p.ProgramChanges[4].Enabled }},
	{"cc1", converter.Inverted, func(p *converter.Preset) *bool { return &p.ControlChanges[0].Enabled }},
	{"switch1", converter.Direct, func(p *converter.Preset) *bool { return &p.Switches[0] }},
	{"cc2", converter.Inverted, func(p *converter.Preset) *bool { return &p.ControlChanges[1].Enabled }},
	{"switch2", converter.Direct, func(p *converter.Preset) *bool { return &p.Switches[1] }},
	{"expA", converter.Inverted, func(p *converter.Preset) *bool { return &p.ExpressionA.Enabled }},
	{"unused", converter.Direct, nil},
	{"unused", converter.Direct, nil},
	{"expB", converter.Inverted, func(p *converter.Preset) *bool { return &p.ExpressionB.Enabled }},
	{"unused", converter.Direct, nil},
	{"unused", converter.Direct, nil},
	{"note", converter.Inverted, func(p *converter.Preset) *bool { return &p.Note.Enabled }},
}

type valueField struct {
	name  string
	field func(p *converter.Preset) *uint8
}

// valueLayout is the order in which the value cursor visits one preset
var valueLayout = []valueField{
	{"pc1", func(p *converter.Preset) *uint8 { return &p.ProgramChanges[0].Program }},
	{"pc2", func(p *converter.Preset) *uint8 { return &p.ProgramChanges[1].Program }},
	{"pc3", func(p *converter.Preset) *uint8 { return &p.ProgramChanges[2].Program }},
	{"pc4", func(p *converter.Preset) *uint8 { return &p.ProgramChanges[3].Program }},
	{"pc5", func(p *converter.Preset) *uint8 { return &p.ProgramChanges[4].Program }},
	{"cc1 controller", func(p *converter.Preset) *uint8 { return &p.ControlChanges[0].Controller }},
	{"cc1 value", func(p *converter.Preset) *uint8 { return &p.ControlChanges[0].Value }},
	{"cc2 controller", func(p *converter.Preset) *uint8 { return &p.ControlChanges[1].Controller }},
	{"cc2 value", func(p *converter.Preset) *uint8 { return &p.ControlChanges[1].Value }},
	{"expA controller", func(p *converter.Preset) *uint8 { return &p.ExpressionA.Controller }},
	{"expA min", func(p *converter.Preset) *uint8 { return &p.ExpressionA.Min }},
	{"expA max", func(p *converter.Preset) *uint8 { return &p.ExpressionA.Max }},
	{"expB controller", func(p *converter.Preset) *uint8 { return &p.ExpressionB.Controller }},
	{"expB min", func(p *converter.Preset) *uint8 { return &p.ExpressionB.Min }},
	{"expB max", func(p *converter.Preset) *uint8 { return &p.ExpressionB.Max }},
	{"note", func(p *converter.Preset) *uint8 { return &p.Note.Value }},
}

type byteField struct {
	pos    int
	mirror int // second copy written on encode, 0 if none
	field  func(c *converter.Config) *uint8
}

// channelLayout maps MIDI channels to their primary and mirrored positions.
// The firmware keeps a second copy; only the primary one is read back.
var channelLayout = []byteField{
	{2311, 2331, func(c *converter.Config) *uint8 { return &c.Channels.ProgramChange[0] }},
	{2312, 2332, func(c *converter.Config) *uint8 { return &c.Channels.ProgramChange[1] }},
	{2313, 2333, func(c *converter.Config) *uint8 { return &c.Channels.ProgramChange[2] }},
	{2314, 2335, func(c *converter.Config) *uint8 { return &c.Channels.ProgramChange[3] }},
	{2315, 2336, func(c *converter.Config) *uint8 { return &c.Channels.ProgramChange[4] }},
	{2316, 2337, func(c *converter.Config) *uint8 { return &c.Channels.ControlChange[0] }},
	{2317, 2338, func(c *converter.Config) *uint8 { return &c.Channels.ControlChange[1] }},
	{2319, 2339, func(c *converter.Config) *uint8 { return &c.Channels.ExpressionA }},
	{2320, 2340, func(c *converter.Config) *uint8 { return &c.Channels.ExpressionB }},
	{2321, 2341, func(c *converter.Config) *uint8 { return &c.Channels.Note }},
}

var calibrationLayout = []byteField{
	{pos: 2343, field: func(c *converter.Config) *uint8 { return &c.Calibration.AMin }},
	{pos: 2344, field: func(c *converter.Config) *uint8 { return &c.Calibration.AMax }},
	{pos: 2345, field: func(c *converter.Config) *uint8 { return &c.Calibration.BMin }},
	{pos: 2346, field: func(c *converter.Config) *uint8 { return &c.Calibration.BMax }},
}

type bitField struct {
	pos   int
	mask  byte
	field func(c *converter.Config) *bool
}

// modeLayout holds the global switches packed into three bytes
var modeLayout = []bitField{
	{2330, 0x02, func(c *converter.Config) *bool { return &c.DirectSelect }},
	{2330, 0x04, func(c *converter.Config) *bool { return &c.RunningStatus }},
	{2330, 0x10, func(c *converter.Config) *bool { return &c.Merge }},
	{2334, 0x04, func(c *converter.Config) *bool { return &c.Switch1 }},
	{2329, 0x40, func(c *converter.Config) *bool { return &c.Switch2 }},
}

// FCB1010 implements the Device interface for the Behringer FCB1010
type FCB1010 struct{}

// NewFCB1010 creates a new FCB1010 device handler
func NewFCB1010() *FCB1010 {
	return &FCB1010{}
}

// Name returns the device name
func (f *FCB1010) Name() string {
	return "Behringer FCB1010"
}

// ID returns the device ID
func (f *FCB1010) ID() uint8 {
	return FCB1010DeviceID
}

// ValidateDump checks length, framing and identity of a configuration dump
func ValidateDump(data []byte) error {
	if len(data) != DumpSize {
		return fmt.Errorf("invalid FCB1010 dump: got %d bytes, want %d", len(data), DumpSize)
	}
	if data[0] != converter.SysExStart {
		return fmt.Errorf("invalid FCB1010 dump: expected start byte 0x%02X, got 0x%02X", converter.SysExStart, data[0])
	}
	if data[DumpSize-1] != converter.SysExEnd {
		return fmt.Errorf("invalid FCB1010 dump: expected end byte 0x%02X, got 0x%02X", converter.SysExEnd, data[DumpSize-1])
	}
	if !converter.IsBehringerSyx(data) {
		id, _ := converter.ExtractManufacturerID(data)
		return fmt.Errorf("invalid FCB1010 dump: manufacturer % X is not Behringer", id)
	}
	// device, model and dump type follow the 3-byte manufacturer ID
	for i := 3; i < len(Signature); i++ {
		if data[signatureStart+i] != Signature[i] {
			return fmt.Errorf("invalid FCB1010 dump: signature byte %d is 0x%02X, want 0x%02X", signatureStart+i, data[signatureStart+i], Signature[i])
		}
	}
	return nil
}

// AcceptDump is ValidateDump plus a check that every data byte is 7-bit.
// It filters messages arriving on a MIDI port; ParseSyx does not require it.
func AcceptDump(data []byte) error {
	if err := ValidateDump(data); err != nil {
		return err
	}
	return converter.ValidateSyx(data)
}

// ParseSyx decodes a configuration dump into cfg.
// On error cfg is not modified.
func (f *FCB1010) ParseSyx(data []byte, cfg *converter.Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := ValidateDump(data); err != nil {
		return err
	}

	var next converter.Config

	flags := converter.FlagCursor{Offset: flagStart}
	for i := range next.Presets {
		p := &next.Presets[i]
		for _, fl := range flagLayout {
			v := flags.Read(data, fl.polarity)
			if fl.field != nil {
				*fl.field(p) = v
			}
		}
	}

	values := converter.ValueCursor{Offset: valueStart}
	for i := range next.Presets {
		p := &next.Presets[i]
		for _, vf := range valueLayout {
			*vf.field(p) = values.Read(data)
		}
	}

	for _, bf := range channelLayout {
		*bf.field(&next) = data[bf.pos]
	}
	for _, mf := range modeLayout {
		*mf.field(&next) = data[mf.pos]&mf.mask == mf.mask
	}
	for _, bf := range calibrationLayout {
		*bf.field(&next) = data[bf.pos]
	}

	*cfg = next
	return nil
}

// GenerateSyx encodes cfg as a complete configuration dump
func (f *FCB1010) GenerateSyx(cfg *converter.Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}

	// Work on a copy so the accessors can take addresses
	src := *cfg
	data := make([]byte, DumpSize)

	data[0] = converter.SysExStart
	copy(data[signatureStart:], Signature[:])

	flags := converter.FlagCursor{Offset: flagStart}
	for i := range src.Presets {
		p := &src.Presets[i]
		for _, fl := range flagLayout {
			if fl.field == nil {
				flags.Write(data, fl.polarity, false)
				continue
			}
			flags.Write(data, fl.polarity, *fl.field(p))
		}
	}

	values := converter.ValueCursor{Offset: valueStart}
	for i := range src.Presets {
		p := &src.Presets[i]
		for _, vf := range valueLayout {
			values.Write(data, *vf.field(p)&0x7F)
		}
	}

	for _, bf := range channelLayout {
		v := *bf.field(&src) & 0x7F
		data[bf.pos] = v
		data[bf.mirror] = v
	}

	for _, mf := range modeLayout {
		data[mf.pos] = 0
	}
	for _, mf := range modeLayout {
		if *mf.field(&src) {
			data[mf.pos] |= mf.mask
		}
	}

	for _, bf := range calibrationLayout {
		data[bf.pos] = *bf.field(&src) & 0x7F
	}

	for i := reservedStart; i <= reservedEnd; i++ {
		data[i] = reservedFill
	}

	data[DumpSize-1] = converter.SysExEnd

	return data, nil
}
