package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatSyx     Format = "syx"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".syx":
		return FormatSyx
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	if data[0] == SysExStart {
		return FormatSyx
	}

	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	if bytes.HasPrefix(data, []byte(CSVHeader)) {
		return FormatCSV
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}

	return FormatUnknown
}

// Load decodes data in the given format into a new Config.
// CSV and JSON input is applied on top of factory defaults.
func (c *Converter) Load(data []byte, format Format) (*Config, error) {
	cfg := NewConfig()
	switch format {
	case FormatSyx:
		if err := NewSyxConverter(c.device).ParseSyx(data, cfg); err != nil {
			return nil, err
		}
	case FormatCSV:
		res, err := ReadCSV(bytes.NewReader(data), cfg, c.CSV)
		if err != nil {
			return nil, err
		}
		c.LastImport = res
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot read %s input", format)
	}
	return cfg, nil
}

// Save encodes cfg in the given format
func (c *Converter) Save(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatSyx:
		return NewSyxConverter(c.device).GenerateSyx(cfg)
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, cfg, c.CSV); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
		return data, nil
	case FormatMIDI:
		if c.PreviewPreset < 0 || c.PreviewPreset >= NumPresets {
			return nil, fmt.Errorf("preset index %d out of range 0-%d", c.PreviewPreset, NumPresets-1)
		}
		return NewMIDIConverter().GenerateMIDI(cfg.Presets[c.PreviewPreset], cfg.Channels)
	default:
		return nil, fmt.Errorf("cannot write %s output", format)
	}
}

// Convert converts data between two formats
func (c *Converter) Convert(data []byte, from, to Format) ([]byte, error) {
	cfg, err := c.Load(data, from)
	if err != nil {
		return nil, err
	}
	return c.Save(cfg, to)
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}

	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	outputData, err := c.Convert(data, inputFormat, outputFormat)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"syx -> csv",
		"syx -> json",
		"syx -> midi",
		"csv -> syx",
		"csv -> json",
		"csv -> midi",
		"json -> syx",
		"json -> csv",
		"json -> midi",
	}
}
