package converter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

const testChannelLine = "MIDI Channel,,1,,2,,3,,4,,5,,6,,,7,,,N/A,N/A,8,,,,9,,,,10,"

func csvLines(rows ...string) []string {
	return append([]string{CSVHeader, testChannelLine, CSVColumnHeader}, rows...)
}

// row builds a preset row where every value column holds v
func row(bank, slot string, v string) string {
	fields := []string{bank, slot}
	for i := 0; i < CSVFields-2; i++ {
		fields = append(fields, v)
	}
	return strings.Join(fields, ",")
}

func TestParseCSVChannels(t *testing.T) {
	cfg := NewConfig()
	res, err := ParseCSVLines(csvLines(), cfg, CSVOptions{})
	if err != nil {
		t.Fatalf("ParseCSVLines() error = %v", err)
	}
	if res.Presets != 0 || res.Skipped != 0 {
		t.Errorf("result = %+v, want zero", res)
	}

	want := Channels{
		ProgramChange: [5]uint8{1, 2, 3, 4, 5},
		ControlChange: [2]uint8{6, 7},
		ExpressionA:   8,
		ExpressionB:   9,
		Note:          10,
	}
	if cfg.Channels != want {
		t.Errorf("Channels = %+v, want %+v", cfg.Channels, want)
	}
}

func TestParseCSVRowMapping(t *testing.T) {
	cfg := NewConfig()
	line := "3,5,1,10,0,11,1,12,0,13,1,14,1,20,21,1,22,23,1,0,0,30,1,120,1,31,2,121,1,64"
	res, err := ParseCSVLines(csvLines(line), cfg, CSVOptions{Controller2Columns: true})
	if err != nil {
		t.Fatalf("ParseCSVLines() error = %v", err)
	}
	if res.Presets != 1 {
		t.Fatalf("Presets = %d, want 1", res.Presets)
	}

	want := Preset{
		ProgramChanges: [5]ProgramChange{
			{true, 10}, {false, 11}, {true, 12}, {false, 13}, {true, 14},
		},
		ControlChanges: [2]ControlChange{
			{Enabled: true, Controller: 20, Value: 21},
			{Enabled: true, Controller: 22, Value: 23},
		},
		Switches:    [2]bool{true, false},
		ExpressionA: Expression{Enabled: false, Controller: 30, Min: 1, Max: 120},
		ExpressionB: Expression{Enabled: true, Controller: 31, Min: 2, Max: 121},
		Note:        Note{Enabled: true, Value: 64},
	}
	if cfg.Presets[24] != want {
		t.Errorf("preset 24 = %+v\nwant %+v", cfg.Presets[24], want)
	}

	// Everything else keeps its defaults
	if cfg.Presets[23] != NewPreset(23) || cfg.Presets[25] != NewPreset(25) {
		t.Error("neighbouring presets were modified")
	}
}

func TestParseCSVSecondTripletOverwritesController1(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets[0].ControlChanges[1] = ControlChange{Enabled: true, Controller: 99, Value: 98}
	line := "1,1,1,0,0,0,0,0,0,0,0,0,1,20,21,0,22,23,0,0,1,27,0,127,1,7,0,127,0,60"

	if _, err := ParseCSVLines(csvLines(line), cfg, CSVOptions{}); err != nil {
		t.Fatalf("ParseCSVLines() error = %v", err)
	}

	p := cfg.Presets[0]
	if p.ControlChanges[0] != (ControlChange{Enabled: false, Controller: 22, Value: 23}) {
		t.Errorf("CC1 = %+v, want second triplet", p.ControlChanges[0])
	}
	if p.ControlChanges[1] != (ControlChange{Enabled: true, Controller: 99, Value: 98}) {
		t.Errorf("CC2 = %+v, want untouched", p.ControlChanges[1])
	}
}

func TestParseCSVController1TwiceKeepsController2(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets[0].ControlChanges[1] = ControlChange{Enabled: true, Controller: 99, Value: 98}
	line := "1,1,1,0,0,0,0,0,0,0,0,0,1,20,21,1,20,21,0,0,1,27,0,127,1,7,0,127,0,60"

	if _, err := ParseCSVLines(csvLines(line), cfg, CSVOptions{}); err != nil {
		t.Fatalf("ParseCSVLines() error = %v", err)
	}

	p := cfg.Presets[0]
	if p.ControlChanges[0] != (ControlChange{Enabled: true, Controller: 20, Value: 21}) {
		t.Errorf("CC1 = %+v", p.ControlChanges[0])
	}
	if p.ControlChanges[1] != (ControlChange{Enabled: true, Controller: 99, Value: 98}) {
		t.Errorf("CC2 = %+v, want untouched", p.ControlChanges[1])
	}
}

func TestParseCSVController2Columns(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets[0].ControlChanges[1] = ControlChange{Enabled: true, Controller: 99, Value: 98}
	line := "1,1,1,0,0,0,0,0,0,0,0,0,1,20,21,0,22,23,0,0,1,27,0,127,1,7,0,127,0,60"

	if _, err := ParseCSVLines(csvLines(line), cfg, CSVOptions{Controller2Columns: true}); err != nil {
		t.Fatalf("ParseCSVLines() error = %v", err)
	}

	p := cfg.Presets[0]
	if p.ControlChanges[0] != (ControlChange{Enabled: true, Controller: 20, Value: 21}) {
		t.Errorf("CC1 = %+v", p.ControlChanges[0])
	}
	if p.ControlChanges[1] != (ControlChange{Enabled: false, Controller: 22, Value: 23}) {
		t.Errorf("CC2 = %+v, want second triplet", p.ControlChanges[1])
	}
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"29 fields", strings.TrimSuffix(row("1", "1", "5"), ",5")},
		{"31 fields", row("1", "1", "5") + ",5"},
		{"bank 0", row("0", "1", "5")},
		{"bank 11", row("11", "1", "5")},
		{"slot 0", row("1", "0", "5")},
		{"slot 11", row("1", "11", "5")},
		{"bank not a number", row("x", "1", "5")},
		{"value not a number", row("1", "1", "five")},
		{"value too large", row("1", "1", "128")},
		{"negative value", row("1", "1", "-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			before := *cfg
			res, err := ParseCSVLines(csvLines(tt.line), cfg, CSVOptions{})
			if err != nil {
				t.Fatalf("ParseCSVLines() error = %v", err)
			}
			if res.Skipped != 1 || res.Presets != 0 {
				t.Errorf("result = %+v, want one skipped row", res)
			}
			if cfg.Presets != before.Presets {
				t.Error("skipped row modified presets")
			}
		})
	}
}

func TestParseCSVRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"too few lines", []string{CSVHeader, testChannelLine}},
		{"bad header", []string{"Global", testChannelLine, CSVColumnHeader, row("1", "1", "5")}},
		{"bad column header", []string{CSVHeader, testChannelLine, "Bank,Preset", row("1", "1", "5")}},
		{"short channel line", []string{CSVHeader, "MIDI Channel,,1,,2", CSVColumnHeader, row("1", "1", "5")}},
		{"bad channel", []string{CSVHeader, strings.Replace(testChannelLine, ",,1,", ",,one,", 1), CSVColumnHeader}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			before := *cfg
			if _, err := ParseCSVLines(tt.lines, cfg, CSVOptions{}); err == nil {
				t.Fatal("ParseCSVLines() should fail")
			}
			if *cfg != before {
				t.Error("failed import modified the config")
			}
		})
	}
}

func TestWriteCSVLayout(t *testing.T) {
	cfg := NewConfig()
	cfg.Channels = Channels{
		ProgramChange: [5]uint8{1, 2, 3, 4, 5},
		ControlChange: [2]uint8{6, 7},
		ExpressionA:   8,
		ExpressionB:   9,
		Note:          10,
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, cfg, CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	if len(lines) != 3+NumPresets {
		t.Fatalf("got %d lines, want %d", len(lines), 3+NumPresets)
	}
	if lines[0] != CSVHeader || lines[2] != CSVColumnHeader {
		t.Error("header lines do not match the import literals")
	}
	if lines[1] != testChannelLine {
		t.Errorf("channel line = %q\nwant %q", lines[1], testChannelLine)
	}
	if !strings.HasPrefix(lines[3], "1,1,1,0,") {
		t.Errorf("first row = %q", lines[3])
	}
	if !strings.HasPrefix(lines[3+24], "3,5,1,24,") {
		t.Errorf("row for bank 3 slot 5 = %q", lines[3+24])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "10,10,1,99,") {
		t.Errorf("last row = %q", lines[len(lines)-1])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	cfg := NewConfig()
	for i := range cfg.Presets {
		p := &cfg.Presets[i]
		p.ProgramChanges[i%5] = ProgramChange{Enabled: i%2 == 0, Program: uint8(127 - i)}
		p.ControlChanges[0] = ControlChange{Enabled: true, Controller: uint8(i), Value: uint8(i / 2)}
		p.ControlChanges[1] = ControlChange{Enabled: i%3 == 0, Controller: uint8(i + 1), Value: uint8(i + 2)}
		p.Switches = [2]bool{i%4 == 0, i%5 == 0}
		p.ExpressionB.Enabled = i%7 != 0
		p.Note = Note{Enabled: i%6 == 0, Value: uint8(i)}
	}
	cfg.Channels.ControlChange[1] = 12

	opts := CSVOptions{Controller2Columns: true}
	path := filepath.Join(t.TempDir(), "FCB1010.csv")
	if err := WriteCSVFile(path, cfg, opts); err != nil {
		t.Fatalf("WriteCSVFile() error = %v", err)
	}

	got := NewConfig()
	res, err := ParseCSVFile(path, got, opts)
	if err != nil {
		t.Fatalf("ParseCSVFile() error = %v", err)
	}
	if res.Presets != NumPresets || res.Skipped != 0 {
		t.Errorf("result = %+v, want %d presets", res, NumPresets)
	}
	if *got != *cfg {
		t.Error("export -> import did not reproduce the config")
	}
}

func TestCSVExportRepeatsController1(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets[0].ControlChanges[0] = ControlChange{Enabled: true, Controller: 20, Value: 21}
	cfg.Presets[0].ControlChanges[1] = ControlChange{Enabled: false, Controller: 22, Value: 23}

	tests := []struct {
		name string
		opts CSVOptions
		want string
	}{
		{"default", CSVOptions{}, "1,20,21,1,20,21"},
		{"controller 2 columns", CSVOptions{Controller2Columns: true}, "1,20,21,0,22,23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteCSV(&buf, cfg, tt.opts); err != nil {
				t.Fatalf("WriteCSV() error = %v", err)
			}
			first := strings.Split(buf.String(), "\n")[3]
			fields := strings.Split(first, ",")
			if got := strings.Join(fields[12:18], ","); got != tt.want {
				t.Errorf("controller columns = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCSVDefaultRoundTripKeepsController2(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets[7].ControlChanges[0] = ControlChange{Enabled: true, Controller: 64, Value: 127}
	cfg.Presets[7].ControlChanges[1] = ControlChange{Enabled: true, Controller: 11, Value: 5}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, cfg, CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	got := NewConfig()
	got.Presets[7].ControlChanges[1] = cfg.Presets[7].ControlChanges[1]
	if _, err := ReadCSV(&buf, got, CSVOptions{}); err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if got.Presets[7] != cfg.Presets[7] {
		t.Errorf("preset 7 = %+v\nwant %+v", got.Presets[7], cfg.Presets[7])
	}
}

func TestReadCSVToleratesCRLF(t *testing.T) {
	text := strings.Join(csvLines(row("2", "2", "3")), "\r\n") + "\r\n"
	cfg := NewConfig()
	res, err := ReadCSV(strings.NewReader(text), cfg, CSVOptions{})
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if res.Presets != 1 {
		t.Errorf("Presets = %d, want 1", res.Presets)
	}
	if cfg.Presets[11].Note.Value != 3 {
		t.Errorf("preset 11 note = %d, want 3", cfg.Presets[11].Note.Value)
	}
}
