package converter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSV layout
const (
	CSVHeader       = "Global,,Program Change 1,,Program Change 2,,Program Change 3,,Program Change 4,,Program Change 5,,Continuous Controller 1,,,Continuous Controller 2,,,Switch 1,Switch 2,Expression Pedal A,,,,Expression Pedal B,,,,Note,"
	CSVColumnHeader = "Bank,Preset,Enabled,Program,Enabled,Program,Enabled,Program,Enabled,Program,Enabled,Program,Enabled,Controller,Value,Enabled,Controller,Value,Enabled,Enabled,Enabled,Controller,Minimum,Maximum,Enabled,Controller,Minimum,Maximum,Enabled,Value"
	CSVFields       = 30
	channelLabel    = "MIDI Channel"
	noChannel       = "N/A"
)

// channelColumns are the field indices of line 1 holding MIDI channels
var channelColumns = []struct {
	col   int
	field func(c *Channels) *uint8
}{
	{2, func(c *Channels) *uint8 { return &c.ProgramChange[0] }},
	{4, func(c *Channels) *uint8 { return &c.ProgramChange[1] }},
	{6, func(c *Channels) *uint8 { return &c.ProgramChange[2] }},
	{8, func(c *Channels) *uint8 { return &c.ProgramChange[3] }},
	{10, func(c *Channels) *uint8 { return &c.ProgramChange[4] }},
	{12, func(c *Channels) *uint8 { return &c.ControlChange[0] }},
	{15, func(c *Channels) *uint8 { return &c.ControlChange[1] }},
	{20, func(c *Channels) *uint8 { return &c.ExpressionA }},
	{24, func(c *Channels) *uint8 { return &c.ExpressionB }},
	{28, func(c *Channels) *uint8 { return &c.Note }},
}

// csvColumn is one preset column; exactly one of flag and value is set
type csvColumn struct {
	flag  func(p *Preset) *bool
	value func(p *Preset) *uint8
}

func flagCol(f func(p *Preset) *bool) csvColumn   { return csvColumn{flag: f} }
func valueCol(f func(p *Preset) *uint8) csvColumn { return csvColumn{value: f} }

func controlChangeCols(i int) []csvColumn {
	return []csvColumn{
		flagCol(func(p *Preset) *bool { return &p.ControlChanges[i].Enabled }),
		valueCol(func(p *Preset) *uint8 { return &p.ControlChanges[i].Controller }),
		valueCol(func(p *Preset) *uint8 { return &p.ControlChanges[i].Value }),
	}
}

// presetColumns returns the layout of fields 2-29 of a preset row
func presetColumns(opts CSVOptions) []csvColumn {
	cols := make([]csvColumn, 0, CSVFields-2)
	for i := 0; i < NumProgramSlots; i++ {
		cols = append(cols,
			flagCol(func(p *Preset) *bool { return &p.ProgramChanges[i].Enabled }),
			valueCol(func(p *Preset) *uint8 { return &p.ProgramChanges[i].Program }),
		)
	}
	cols = append(cols, controlChangeCols(0)...)
	if opts.Controller2Columns {
		cols = append(cols, controlChangeCols(1)...)
	} else {
		cols = append(cols, controlChangeCols(0)...)
	}
	cols = append(cols,
		flagCol(func(p *Preset) *bool { return &p.Switches[0] }),
		flagCol(func(p *Preset) *bool { return &p.Switches[1] }),
		flagCol(func(p *Preset) *bool { return &p.ExpressionA.Enabled }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionA.Controller }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionA.Min }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionA.Max }),
		flagCol(func(p *Preset) *bool { return &p.ExpressionB.Enabled }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionB.Controller }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionB.Min }),
		valueCol(func(p *Preset) *uint8 { return &p.ExpressionB.Max }),
		flagCol(func(p *Preset) *bool { return &p.Note.Enabled }),
		valueCol(func(p *Preset) *uint8 { return &p.Note.Value }),
	)
	return cols
}

// CSVOptions controls the tabular codec
type CSVOptions struct {
	// Controller2Columns maps the "Continuous Controller 2" columns to
	// controller 2. When false the table keeps the spreadsheet's own layout:
	// export writes the controller 1 triplet twice and import lets the
	// second triplet overwrite controller 1, leaving controller 2 untouched.
	// Tables written with one setting do not read back under the other.
	Controller2Columns bool
}

// Controller2Warning is shown whenever Controller2Columns is in effect
const Controller2Warning = "csv columns 15-17 are read and written as controller 2; tables from other editors carry controller 1 there"

// CSVResult reports what an import did
type CSVResult struct {
	Presets int // rows applied
	Skipped int // rows ignored as malformed or out of range
}

// ParseCSVFile reads a CSV file into cfg
func ParseCSVFile(filename string, cfg *Config, opts CSVOptions) (CSVResult, error) {
	f, err := os.Open(filename)
	if err != nil {
		return CSVResult{}, fmt.Errorf("failed to read csv file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, cfg, opts)
}

// ReadCSV reads CSV text from r into cfg
func ReadCSV(r io.Reader, cfg *Config, opts CSVOptions) (CSVResult, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return CSVResult{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return ParseCSVLines(lines, cfg, opts)
}

// ParseCSVLines imports a table into cfg.
//
// A bad header, column header or channel line fails the import before cfg is
// touched. Preset rows with the wrong field count, a bank or slot outside
// 1-10, or a value that is not an integer in 0-127 are skipped.
func ParseCSVLines(lines []string, cfg *Config, opts CSVOptions) (CSVResult, error) {
	var res CSVResult
	if cfg == nil {
		return res, errors.New("nil config")
	}
	if len(lines) < 3 {
		return res, fmt.Errorf("csv has %d lines, need at least 3", len(lines))
	}
	if lines[0] != CSVHeader {
		return res, fmt.Errorf("first line of csv should contain headers: %s", CSVHeader)
	}
	if lines[2] != CSVColumnHeader {
		return res, fmt.Errorf("third line of csv should contain headers: %s", CSVColumnHeader)
	}

	fields := strings.Split(lines[1], ",")
	if len(fields) < CSVFields {
		return res, fmt.Errorf("insufficient midi channel parameters: got %d fields, want %d", len(fields), CSVFields)
	}
	channels := cfg.Channels
	for _, cc := range channelColumns {
		v, err := parseByte(fields[cc.col])
		if err != nil {
			return res, fmt.Errorf("midi channel in column %d: %w", cc.col+1, err)
		}
		*cc.field(&channels) = v
	}
	cfg.Channels = channels

	cols := presetColumns(opts)
	for _, line := range lines[3:] {
		fields := strings.Split(line, ",")
		if len(fields) != CSVFields {
			res.Skipped++
			continue
		}
		bank, err1 := strconv.Atoi(strings.TrimSpace(fields[0]))
		slot, err2 := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err1 != nil || err2 != nil {
			res.Skipped++
			continue
		}
		idx, err := PresetIndex(bank, slot)
		if err != nil {
			res.Skipped++
			continue
		}
		p, err := parsePresetRow(fields[2:], cols, cfg.Presets[idx])
		if err != nil {
			res.Skipped++
			continue
		}
		cfg.Presets[idx] = p
		res.Presets++
	}
	return res, nil
}

func parsePresetRow(fields []string, cols []csvColumn, p Preset) (Preset, error) {
	for i, col := range cols {
		if col.flag != nil {
			n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
			if err != nil {
				return p, err
			}
			*col.flag(&p) = n == 1
			continue
		}
		v, err := parseByte(fields[i])
		if err != nil {
			return p, err
		}
		*col.value(&p) = v
	}
	return p, nil
}

func parseByte(s string) (uint8, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("value %d out of range 0-127", n)
	}
	return uint8(n), nil
}

// WriteCSVFile writes cfg to a CSV file
func WriteCSVFile(filename string, cfg *Config, opts CSVOptions) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}
	if err := WriteCSV(f, cfg, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}
	return nil
}

// WriteCSV writes cfg as a table that ParseCSVLines accepts.
// Rows are ordered bank 1-10, slot 1-10.
func WriteCSV(w io.Writer, cfg *Config, opts CSVOptions) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	bw := bufio.NewWriter(w)

	bw.WriteString(CSVHeader + "\n")

	channels := make([]string, CSVFields)
	channels[0] = channelLabel
	channels[18], channels[19] = noChannel, noChannel
	ch := cfg.Channels
	for _, cc := range channelColumns {
		channels[cc.col] = strconv.Itoa(int(*cc.field(&ch)))
	}
	bw.WriteString(strings.Join(channels, ",") + "\n")

	bw.WriteString(CSVColumnHeader + "\n")

	cols := presetColumns(opts)
	row := make([]string, CSVFields)
	for bank := 1; bank <= NumBanks; bank++ {
		for slot := 1; slot <= SlotsPerBank; slot++ {
			idx, _ := PresetIndex(bank, slot)
			p := cfg.Presets[idx]
			row[0], row[1] = strconv.Itoa(bank), strconv.Itoa(slot)
			for i, col := range cols {
				if col.flag != nil {
					row[i+2] = boolField(*col.flag(&p))
				} else {
					row[i+2] = strconv.Itoa(int(*col.value(&p)))
				}
			}
			bw.WriteString(strings.Join(row, ",") + "\n")
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
