package converter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"dump.syx", FormatSyx},
		{"DUMP.SYX", FormatSyx},
		{"FCB1010.csv", FormatCSV},
		{"config.json", FormatJSON},
		{"preview.mid", FormatMIDI},
		{"preview.midi", FormatMIDI},
		{"test.txt", FormatUnknown},
		{"test", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := DetectFormat(tt.filename)
			if result != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, result, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"SysEx message", []byte{0xF0, 0x00, 0x20, 0x32, 0x01, 0xF7}, FormatSyx},
		{"MIDI file", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"CSV table", []byte(CSVHeader + "\n"), FormatCSV},
		{"JSON document", []byte("  {\"merge\": true}"), FormatJSON},
		{"Short data", []byte{0x00, 0x01}, FormatUnknown},
		{"Other text", []byte("hello world"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormatFromContent(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// mockDevice implements Device interface for testing
type mockDevice struct{}

func (m *mockDevice) Name() string { return "Mock Device" }
func (m *mockDevice) ID() uint8    { return 0 }
func (m *mockDevice) ParseSyx(data []byte, cfg *Config) error {
	cfg.Merge = false
	return nil
}
func (m *mockDevice) GenerateSyx(cfg *Config) ([]byte, error) {
	return []byte{0xF0, 0xF7}, nil
}

func TestConverterNew(t *testing.T) {
	device := &mockDevice{}
	conv := New(device)

	if conv == nil {
		t.Fatal("New() returned nil")
	}

	if conv.GetDevice() != device {
		t.Error("GetDevice() did not return the expected device")
	}
}

func TestConverterSetDevice(t *testing.T) {
	device1 := &mockDevice{}
	device2 := &mockDevice{}

	conv := New(device1)
	if conv.GetDevice() != device1 {
		t.Error("GetDevice() should return device1")
	}

	conv.SetDevice(device2)
	if conv.GetDevice() != device2 {
		t.Error("GetDevice() should return device2 after SetDevice")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if !cfg.RunningStatus || !cfg.Merge || cfg.DirectSelect {
		t.Errorf("mode flags = direct %v running %v merge %v, want false true true",
			cfg.DirectSelect, cfg.RunningStatus, cfg.Merge)
	}
	if cfg.Calibration != (Calibration{AMin: 0, AMax: 127, BMin: 0, BMax: 127}) {
		t.Errorf("Calibration = %+v", cfg.Calibration)
	}

	for i, p := range cfg.Presets {
		if !p.ProgramChanges[0].Enabled || p.ProgramChanges[0].Program != uint8(i) {
			t.Fatalf("preset %d PC1 = %+v, want enabled program %d", i, p.ProgramChanges[0], i)
		}
		for j := 1; j < NumProgramSlots; j++ {
			if p.ProgramChanges[j] != (ProgramChange{}) {
				t.Fatalf("preset %d PC%d = %+v, want disabled", i, j+1, p.ProgramChanges[j])
			}
		}
		if p.ExpressionA != (Expression{Enabled: true, Controller: 27, Max: 127}) {
			t.Fatalf("preset %d ExpressionA = %+v", i, p.ExpressionA)
		}
		if p.ExpressionB != (Expression{Enabled: true, Controller: 7, Max: 127}) {
			t.Fatalf("preset %d ExpressionB = %+v", i, p.ExpressionB)
		}
		if p.Note != (Note{Value: 60}) {
			t.Fatalf("preset %d Note = %+v", i, p.Note)
		}
	}
}

func TestPresetIndex(t *testing.T) {
	tests := []struct {
		bank, slot int
		want       int
		wantErr    bool
	}{
		{1, 1, 0, false},
		{3, 5, 24, false},
		{10, 10, 99, false},
		{0, 1, 0, true},
		{11, 1, 0, true},
		{1, 0, 0, true},
		{1, 11, 0, true},
	}

	for _, tt := range tests {
		got, err := PresetIndex(tt.bank, tt.slot)
		if (err != nil) != tt.wantErr {
			t.Errorf("PresetIndex(%d, %d) error = %v, wantErr %v", tt.bank, tt.slot, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("PresetIndex(%d, %d) = %d, want %d", tt.bank, tt.slot, got, tt.want)
		}
	}

	for i := 0; i < NumPresets; i++ {
		bank, slot := BankSlot(i)
		got, err := PresetIndex(bank, slot)
		if err != nil || got != i {
			t.Errorf("PresetIndex(BankSlot(%d)) = %d, %v", i, got, err)
		}
	}
}

func TestConvertCSVToJSONAndBack(t *testing.T) {
	conv := New(&mockDevice{})

	cfg := NewConfig()
	cfg.Presets[42].Note = Note{Enabled: true, Value: 64}
	cfg.Channels.Note = 9

	var buf bytes.Buffer
	if err := WriteCSV(&buf, cfg, CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	jsonData, err := conv.Convert(buf.Bytes(), FormatCSV, FormatJSON)
	if err != nil {
		t.Fatalf("Convert(csv -> json) error = %v", err)
	}

	back, err := conv.Load(jsonData, FormatJSON)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if *back != *cfg {
		t.Error("csv -> json -> config did not reproduce the original config")
	}
}

func TestConvertSyxUsesDevice(t *testing.T) {
	conv := New(&mockDevice{})

	cfg, err := conv.Load([]byte{0xF0, 0xF7}, FormatSyx)
	if err != nil {
		t.Fatalf("Load(syx) error = %v", err)
	}
	if cfg.Merge {
		t.Error("Load(syx) should decode through the device")
	}

	data, err := conv.Save(cfg, FormatSyx)
	if err != nil {
		t.Fatalf("Save(syx) error = %v", err)
	}
	if !bytes.Equal(data, []byte{0xF0, 0xF7}) {
		t.Errorf("Save(syx) = % X", data)
	}
}

func TestSavePreviewRange(t *testing.T) {
	conv := New(&mockDevice{})
	conv.PreviewPreset = NumPresets

	if _, err := conv.Save(NewConfig(), FormatMIDI); err == nil {
		t.Error("Save(midi) with out-of-range preset should fail")
	}
	if _, err := conv.Load([]byte("MThd"), FormatMIDI); err == nil {
		t.Error("Load(midi) should be unsupported")
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.json")

	if err := WriteCSVFile(in, NewConfig(), CSVOptions{}); err != nil {
		t.Fatalf("WriteCSVFile() error = %v", err)
	}

	conv := New(&mockDevice{})
	if err := conv.ConvertFile(in, out); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}

	if err := conv.ConvertFile(in, filepath.Join(dir, "out.txt")); err == nil {
		t.Error("ConvertFile() to unknown extension should fail")
	}
}

func TestGetSupportedConversions(t *testing.T) {
	conversions := GetSupportedConversions()

	if len(conversions) != 9 {
		t.Errorf("GetSupportedConversions() returned %d conversions, want 9", len(conversions))
	}

	if conversions[0] != "syx -> csv" {
		t.Errorf("conversions[0] = %q, want %q", conversions[0], "syx -> csv")
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, NewConfig()); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Bank 1 preset 1", "Bank 10 preset 10", "Running status: on"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestLoadRecordsCSVImport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, NewConfig(), CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	buf.WriteString("11,1,0\n")

	conv := New(&mockDevice{})
	if _, err := conv.Load(buf.Bytes(), FormatCSV); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conv.LastImport != (CSVResult{Presets: NumPresets, Skipped: 1}) {
		t.Errorf("LastImport = %+v", conv.LastImport)
	}
}

func TestSyxWithoutDevice(t *testing.T) {
	conv := New(nil)
	if _, err := conv.Load([]byte{0xF0, 0xF7}, FormatSyx); err == nil {
		t.Error("Load(syx) without a device should fail")
	}
	if _, err := conv.Save(NewConfig(), FormatSyx); err == nil {
		t.Error("Save(syx) without a device should fail")
	}
}
