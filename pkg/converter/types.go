// Package converter provides conversion between Behringer FCB1010 SysEx dumps
// and editable formats (CSV, JSON, MIDI preview)
package converter

import "fmt"

// Preset and bank geometry
const (
	NumBanks        = 10
	SlotsPerBank    = 10
	NumPresets      = NumBanks * SlotsPerBank
	NumProgramSlots = 5
)

// ProgramChange is one of the five program change slots of a preset
type ProgramChange struct {
	Enabled bool  `json:"enabled"`
	Program uint8 `json:"program"`
}

// ControlChange is one of the two continuous controller slots of a preset
type ControlChange struct {
	Enabled    bool  `json:"enabled"`
	Controller uint8 `json:"controller"`
	Value      uint8 `json:"value"`
}

// Expression is an expression pedal assignment
type Expression struct {
	Enabled    bool  `json:"enabled"`
	Controller uint8 `json:"controller"`
	Min        uint8 `json:"min"`
	Max        uint8 `json:"max"`
}

// Note is the note trigger slot of a preset
type Note struct {
	Enabled bool  `json:"enabled"`
	Value   uint8 `json:"value"`
}

// Preset holds every parameter of one FCB1010 preset.
// All numeric fields are MIDI data bytes (0-127).
type Preset struct {
	ProgramChanges [NumProgramSlots]ProgramChange `json:"program_changes"`
	ControlChanges [2]ControlChange               `json:"control_changes"`
	Switches       [2]bool                        `json:"switches"`
	ExpressionA    Expression                     `json:"expression_a"`
	ExpressionB    Expression                     `json:"expression_b"`
	Note           Note                           `json:"note"`
}

// NewPreset returns the factory template with program change 1 set to program
func NewPreset(program uint8) Preset {
	return Preset{
		ProgramChanges: [NumProgramSlots]ProgramChange{
			{Enabled: true, Program: program},
		},
		ExpressionA: Expression{Enabled: true, Controller: 27, Min: 0, Max: 127},
		ExpressionB: Expression{Enabled: true, Controller: 7, Min: 0, Max: 127},
		Note:        Note{Value: 60},
	}
}

// Channels holds the MIDI channel of each message source
type Channels struct {
	ProgramChange [NumProgramSlots]uint8 `json:"program_change"`
	ControlChange [2]uint8               `json:"control_change"`
	ExpressionA   uint8                  `json:"expression_a"`
	ExpressionB   uint8                  `json:"expression_b"`
	Note          uint8                  `json:"note"`
}

// Calibration holds the expression pedal calibration bounds
type Calibration struct {
	AMin uint8 `json:"a_min"`
	AMax uint8 `json:"a_max"`
	BMin uint8 `json:"b_min"`
	BMax uint8 `json:"b_max"`
}

// Config is the complete device configuration carried by a SysEx dump.
// It is a comparable value: two configs are equal when every field is.
type Config struct {
	Presets       [NumPresets]Preset `json:"presets"`
	Channels      Channels           `json:"channels"`
	DirectSelect  bool               `json:"direct_select"`
	RunningStatus bool               `json:"running_status"`
	Merge         bool               `json:"merge"`
	Switch1       bool               `json:"switch1"`
	Switch2       bool               `json:"switch2"`
	Calibration   Calibration        `json:"calibration"`
}

// NewConfig returns a configuration resembling the FCB1010 factory state.
// Preset i sends program i on program change 1.
func NewConfig() *Config {
	cfg := &Config{
		RunningStatus: true,
		Merge:         true,
		Calibration:   Calibration{AMin: 0, AMax: 127, BMin: 0, BMax: 127},
	}
	for i := range cfg.Presets {
		cfg.Presets[i] = NewPreset(uint8(i))
	}
	return cfg
}

// PresetIndex converts a 1-based bank and slot to a linear preset index
func PresetIndex(bank, slot int) (int, error) {
	if bank < 1 || bank > NumBanks {
		return 0, fmt.Errorf("bank %d out of range 1-%d", bank, NumBanks)
	}
	if slot < 1 || slot > SlotsPerBank {
		return 0, fmt.Errorf("slot %d out of range 1-%d", slot, SlotsPerBank)
	}
	return (bank-1)*SlotsPerBank + (slot - 1), nil
}

// BankSlot is the inverse of PresetIndex
func BankSlot(index int) (bank, slot int) {
	return index/SlotsPerBank + 1, index%SlotsPerBank + 1
}

// Device interface for device-specific SysEx handling
type Device interface {
	Name() string
	ID() uint8
	ParseSyx(data []byte, cfg *Config) error
	GenerateSyx(cfg *Config) ([]byte, error)
}

// Converter handles format conversions
type Converter struct {
	device Device

	// CSV controls the tabular codec
	CSV CSVOptions

	// PreviewPreset is the preset index rendered when saving to MIDI
	PreviewPreset int

	// LastImport reports the most recent CSV import made by Load
	LastImport CSVResult
}

// New creates a new Converter with the specified device
func New(device Device) *Converter {
	return &Converter{device: device}
}

// GetDevice returns the current device
func (c *Converter) GetDevice() Device {
	return c.device
}

// SetDevice sets the device for conversion
func (c *Converter) SetDevice(device Device) {
	c.device = device
}
