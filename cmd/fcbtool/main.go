// Package main is the entry point for the fcbtool CLI
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/james-see/fcbtool/pkg/api"
	"github.com/james-see/fcbtool/pkg/config"
	"github.com/james-see/fcbtool/pkg/converter"
	"github.com/james-see/fcbtool/pkg/converter/devices"
	"github.com/james-see/fcbtool/pkg/port"
	"github.com/james-see/fcbtool/pkg/tui"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	deviceName string
	outputFile string
	cc2Columns bool
	verbose    bool
	serverPort int
	bank       int
	slot       int
	portName   string
	timeout    time.Duration

	settings *config.Settings
	logger   *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fcbtool",
	Short: "Edit Behringer FCB1010 configurations",
	Long: `fcbtool converts Behringer FCB1010 SysEx dumps to and from an editable
CSV table and JSON, previews presets as MIDI files and transfers dumps
over MIDI ports.

Examples:
  fcbtool receive -o FCB1010.csv
  fcbtool csv2syx FCB1010.csv
  fcbtool send FCB1010.syx --port "UM-ONE"
  fcbtool show FCB1010.syx --bank 3 --slot 5
  fcbtool convert dump.syx -o dump.json
  fcbtool tui
  fcbtool serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Detects the input format and converts to the format given by the output file extension (.syx, .csv, .json, .mid).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var syx2csvCmd = &cobra.Command{
	Use:   "syx2csv <input.syx>",
	Short: "Convert .syx to .csv",
	Args:  cobra.ExactArgs(1),
	RunE:  convertTo(converter.FormatCSV),
}

var csv2syxCmd = &cobra.Command{
	Use:   "csv2syx <input.csv>",
	Short: "Convert .csv to .syx",
	Args:  cobra.ExactArgs(1),
	RunE:  convertTo(converter.FormatSyx),
}

var syx2jsonCmd = &cobra.Command{
	Use:   "syx2json <input.syx>",
	Short: "Convert .syx to JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  convertTo(converter.FormatJSON),
}

var json2syxCmd = &cobra.Command{
	Use:   "json2syx <input.json>",
	Short: "Convert JSON to .syx",
	Args:  cobra.ExactArgs(1),
	RunE:  convertTo(converter.FormatSyx),
}

var showCmd = &cobra.Command{
	Use:   "show <input>",
	Short: "Print the presets and global settings of a configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var previewCmd = &cobra.Command{
	Use:   "preview <input>",
	Short: "Render one preset as a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Write the factory configuration",
	Args:  cobra.NoArgs,
	RunE:  runDefaults,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var sendCmd = &cobra.Command{
	Use:   "send <input>",
	Short: "Send a configuration to the FCB1010",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Wait for a SysEx dump from the FCB1010 and save it",
	Args:  cobra.NoArgs,
	RunE:  runReceive,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the settings file",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Settings file (default ~/.config/fcbtool/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "fcb1010", "Target device (fcb1010)")
	rootCmd.PersistentFlags().BoolVar(&cc2Columns, "cc2-columns", false, "Read and write CSV columns 15-17 as controller 2 instead of a second controller 1")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	for _, cmd := range []*cobra.Command{syx2csvCmd, csv2syxCmd, syx2jsonCmd, json2syxCmd, defaultsCmd, receiveCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	}

	for _, cmd := range []*cobra.Command{showCmd, previewCmd} {
		cmd.Flags().IntVar(&bank, "bank", 0, "Bank 1-10")
		cmd.Flags().IntVar(&slot, "slot", 0, "Preset 1-10 within the bank")
	}
	previewCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	sendCmd.Flags().StringVarP(&portName, "port", "p", "", "MIDI output port (default from settings)")
	receiveCmd.Flags().StringVarP(&portName, "port", "p", "", "MIDI input port (default from settings)")
	receiveCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "How long to wait for the dump (default from settings)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (default from settings)")

	rootCmd.AddCommand(convertCmd, syx2csvCmd, csv2syxCmd, syx2jsonCmd, json2syxCmd)
	rootCmd.AddCommand(showCmd, previewCmd, defaultsCmd)
	rootCmd.AddCommand(portsCmd, sendCmd, receiveCmd)
	rootCmd.AddCommand(tuiCmd, serveCmd, configCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	if configPath != "" {
		settings, err = config.LoadFrom(configPath)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("cc2-columns") {
		settings.Controller2Columns = cc2Columns
	}
	if settings.Controller2Columns {
		logger.Warn(converter.Controller2Warning)
	}
	logger.Debug("settings loaded", "path", configPath, "cc2_columns", settings.Controller2Columns)
	return nil
}

func getDevice() converter.Device {
	switch strings.ToLower(deviceName) {
	case "fcb1010", "fcb-1010":
		return devices.NewFCB1010()
	default:
		return devices.NewFCB1010()
	}
}

func newConverter() *converter.Converter {
	conv := converter.New(getDevice())
	conv.CSV.Controller2Columns = settings.Controller2Columns
	return conv
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

// loadConfig reads a .syx, .csv or .json file, reporting skipped CSV rows
func loadConfig(path string) (*converter.Config, error) {
	format := converter.DetectFormat(path)
	if format == converter.FormatSyx {
		return converter.NewSyxConverter(getDevice()).ParseSyxFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == converter.FormatUnknown {
		format = converter.DetectFormatFromContent(data)
	}

	conv := newConverter()
	cfg, err := conv.Load(data, format)
	if err != nil {
		return nil, err
	}
	if format == converter.FormatCSV {
		reportImport(path, conv.LastImport)
	}
	return cfg, nil
}

func reportImport(path string, res converter.CSVResult) {
	if res.Skipped > 0 {
		logger.Warn("skipped malformed csv rows", "file", path, "skipped", res.Skipped, "applied", res.Presets)
	}
}

func saveConfig(cfg *converter.Config, path string) error {
	format := converter.DetectFormat(path)
	switch format {
	case converter.FormatUnknown:
		return fmt.Errorf("cannot determine output format from %s", path)
	case converter.FormatSyx:
		return converter.NewSyxConverter(getDevice()).WriteSyxFile(cfg, path)
	}
	data, err := newConverter().Save(cfg, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if converter.DetectFormat(outputFile) == converter.FormatMIDI {
		cfg, err := loadConfig(input)
		if err != nil {
			return err
		}
		return converter.NewMIDIConverter().WriteMIDIFile(cfg, 0, outputFile)
	}

	conv := newConverter()
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return err
	}
	reportImport(input, conv.LastImport)
	fmt.Println("Conversion complete!")
	return nil
}

func convertTo(to converter.Format) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output := getOutputPath(input, "."+string(to))

		cfg, err := loadConfig(input)
		if err != nil {
			return err
		}
		if err := saveConfig(cfg, output); err != nil {
			return err
		}

		fmt.Printf("Converted %s -> %s\n", input, output)
		return nil
	}
}

// selectedPreset returns the --bank/--slot preset index, or -1 when neither is set
func selectedPreset() (int, error) {
	if bank == 0 && slot == 0 {
		return -1, nil
	}
	return converter.PresetIndex(bank, slot)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	idx, err := selectedPreset()
	if err != nil {
		return err
	}
	if idx < 0 {
		return converter.WriteSummary(os.Stdout, cfg)
	}
	b, s := converter.BankSlot(idx)
	fmt.Printf("Bank %d preset %d\n%s\n", b, s, cfg.Presets[idx].Summary())
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	input := args[0]
	cfg, err := loadConfig(input)
	if err != nil {
		return err
	}
	idx, err := selectedPreset()
	if err != nil {
		return err
	}
	if idx < 0 {
		idx = 0
	}

	b, s := converter.BankSlot(idx)
	output := outputFile
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = fmt.Sprintf("%s-%d-%d.mid", base, b, s)
	}
	if err := converter.NewMIDIConverter().WriteMIDIFile(cfg, idx, output); err != nil {
		return err
	}
	fmt.Printf("Bank %d preset %d -> %s\n", b, s, output)
	return nil
}

func runDefaults(cmd *cobra.Command, args []string) error {
	output := outputFile
	if output == "" {
		output = settings.CSVPath
	}
	if err := saveConfig(converter.NewConfig(), output); err != nil {
		return err
	}
	fmt.Printf("Factory configuration written to %s\n", output)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	client := port.New(logger)
	defer client.Close()

	fmt.Println("Inputs:")
	for _, name := range client.InPorts() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Outputs:")
	for _, name := range client.OutPorts() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	name := portName
	if name == "" {
		name = settings.OutPort
	}
	if name == "" {
		return fmt.Errorf("no output port given; use --port or set out_port in the settings file")
	}

	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	data, err := newConverter().Save(cfg, converter.FormatSyx)
	if err != nil {
		return err
	}

	client := port.New(logger)
	defer client.Close()
	if err := client.Send(name, data); err != nil {
		return err
	}
	fmt.Printf("Sent %d bytes to %s\n", len(data), name)
	return nil
}

func runReceive(cmd *cobra.Command, args []string) error {
	name := portName
	if name == "" {
		name = settings.InPort
	}
	if name == "" {
		return fmt.Errorf("no input port given; use --port or set in_port in the settings file")
	}
	wait := timeout
	if wait == 0 {
		wait = settings.ReceiveTimeout
	}
	if wait < 0 {
		return fmt.Errorf("--timeout %s must be positive", wait)
	}
	output := outputFile
	if output == "" {
		output = settings.CSVPath
	}

	client := port.New(logger)
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()

	fmt.Printf("Waiting up to %s for a dump on %s...\n", wait, name)
	data, err := client.Receive(ctx, name, devices.AcceptDump)
	if err != nil {
		return err
	}

	cfg, err := newConverter().Load(data, converter.FormatSyx)
	if err != nil {
		return err
	}
	if err := saveConfig(cfg, output); err != nil {
		return err
	}
	fmt.Printf("Received dump saved to %s\n", output)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(converter.CSVOptions{Controller2Columns: settings.Controller2Columns})
}

func runServe(cmd *cobra.Command, args []string) error {
	p := serverPort
	if p == 0 {
		p = settings.ServerPort
	}
	fmt.Printf("Starting API server on port %d...\n", p)
	return api.StartServer(p, api.Options{
		Controller2Columns: settings.Controller2Columns,
		Logger:             logger,
	})
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := settings.SaveTo(path); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
	}
	fmt.Printf("Settings file: %s\n", path)
	fmt.Printf("  in_port: %q\n  out_port: %q\n  csv_path: %s\n  controller2_columns: %t\n  receive_timeout: %s\n  server_port: %d\n",
		settings.InPort, settings.OutPort, settings.CSVPath, settings.Controller2Columns, settings.ReceiveTimeout, settings.ServerPort)
	return nil
}
