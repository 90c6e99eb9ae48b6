// Package tui provides a terminal user interface for fcbtool
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/fcbtool/pkg/converter"
	"github.com/james-see/fcbtool/pkg/converter/devices"
)

// Stage-lit color scheme
var (
	ledRed     = lipgloss.Color("#FF3B30")
	ledAmber   = lipgloss.Color("#FFB000")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ledRed).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(ledRed).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(ledAmber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(ledAmber).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ledRed).
			Padding(1, 2)

	cellStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Width(4).
			Align(lipgloss.Right)

	activeCellStyle = cellStyle.
			Foreground(ledRed).
			Bold(true)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
	StatePresets
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	FromFormat  string
	ToFormat    string
}

// browse is the pseudo output format of the preset browser
const browse = "browse"

var menuItems = []MenuItem{
	{Title: "SYX → CSV", Description: "Convert a SysEx dump to an editable CSV table", FromFormat: "syx", ToFormat: "csv"},
	{Title: "CSV → SYX", Description: "Convert a CSV table to a SysEx dump", FromFormat: "csv", ToFormat: "syx"},
	{Title: "SYX → JSON", Description: "Convert a SysEx dump to JSON", FromFormat: "syx", ToFormat: "json"},
	{Title: "JSON → SYX", Description: "Convert JSON to a SysEx dump", FromFormat: "json", ToFormat: "syx"},
	{Title: "Browse presets", Description: "Inspect the presets of a .syx, .csv or .json file", FromFormat: "any", ToFormat: browse},
	{Title: "Exit", Description: "Exit the application", FromFormat: "", ToFormat: ""},
}

var extensions = map[string][]string{
	"syx":  {".syx"},
	"csv":  {".csv"},
	"json": {".json"},
	"any":  {".syx", ".csv", ".json"},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	conversion   MenuItem
	config       *converter.Config
	preset       int
	csvOptions   converter.CSVOptions
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	config     *converter.Config
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New(opts converter.CSVOptions) Model {
	fp := filepicker.New()
	fp.AllowedTypes = extensions["any"]
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ledRed)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
		csvOptions: opts,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		case StatePresets:
			return m.updatePresets(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.outputFile = msg.outputFile
		m.err = msg.err
		if msg.err == nil && m.conversion.ToFormat == browse {
			m.config = msg.config
			m.preset = 0
			m.state = StatePresets
			return m, nil
		}
		m.state = StateResult
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = extensions[m.conversion.FromFormat]
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// updatePresets moves the cursor over the bank/slot grid
func (m Model) updatePresets(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	bank, slot := converter.BankSlot(m.preset)
	switch msg.String() {
	case "up", "k":
		bank--
	case "down", "j":
		bank++
	case "left", "h":
		slot--
	case "right", "l":
		slot++
	case "enter", "esc":
		m.state = StateMenu
		m.config = nil
		m.selectedFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	if idx, err := converter.PresetIndex(bank, slot); err == nil {
		m.preset = idx
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	item := m.conversion
	selected := m.selectedFile
	opts := m.csvOptions
	return func() tea.Msg {
		conv := converter.New(devices.NewFCB1010())
		conv.CSV = opts

		data, err := os.ReadFile(selected)
		if err != nil {
			return conversionDoneMsg{err: err}
		}

		from := converter.DetectFormat(selected)
		if from == converter.FormatUnknown {
			from = converter.DetectFormatFromContent(data)
		}

		cfg, err := conv.Load(data, from)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		if item.ToFormat == browse {
			return conversionDoneMsg{config: cfg}
		}

		to := converter.Format(item.ToFormat)
		result, err := conv.Save(cfg, to)
		if err != nil {
			return conversionDoneMsg{err: err}
		}

		base := strings.TrimSuffix(selected, filepath.Ext(selected))
		outputFile := base + "." + item.ToFormat

		if err := os.WriteFile(outputFile, result, 0644); err != nil {
			return conversionDoneMsg{err: err}
		}

		return conversionDoneMsg{outputFile: outputFile}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")
	if m.csvOptions.Controller2Columns {
		s.WriteString(statusStyle.Render("⚠ " + converter.Controller2Warning))
		s.WriteString("\n")
	}

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	case StatePresets:
		s.WriteString(m.viewPresets())
	}

	s.WriteString("\n")
	if m.state == StatePresets {
		s.WriteString(helpStyle.Render("←/→: slot • ↑/↓: bank • enter: back • q: quit"))
	} else {
		s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))
	}

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(ledAmber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	label := strings.ToUpper(m.conversion.FromFormat)
	if m.conversion.FromFormat == "any" {
		label = "CONFIGURATION"
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", label)))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.FromFormat, m.conversion.ToFormat)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func (m Model) viewPresets() string {
	if m.config == nil {
		return ""
	}
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s ", filepath.Base(m.selectedFile))))
	s.WriteString("\n\n")

	// Bank rows, slot columns; each cell shows the PC1 program
	s.WriteString(cellStyle.Render(""))
	for slot := 1; slot <= converter.SlotsPerBank; slot++ {
		s.WriteString(cellStyle.Render(fmt.Sprintf("%d", slot)))
	}
	s.WriteString("\n")
	for bank := 1; bank <= converter.NumBanks; bank++ {
		s.WriteString(cellStyle.Render(fmt.Sprintf("B%d", bank)))
		for slot := 1; slot <= converter.SlotsPerBank; slot++ {
			idx, _ := converter.PresetIndex(bank, slot)
			pc := m.config.Presets[idx].ProgramChanges[0]
			text := "-"
			if pc.Enabled {
				text = fmt.Sprintf("%d", pc.Program)
			}
			style := cellStyle
			if idx == m.preset {
				style = activeCellStyle
			}
			s.WriteString(style.Render(text))
		}
		s.WriteString("\n")
	}

	bank, slot := converter.BankSlot(m.preset)
	s.WriteString(statusStyle.Render(fmt.Sprintf("Bank %d preset %d", bank, slot)))
	s.WriteString("\n")
	s.WriteString(m.config.Presets[m.preset].Summary())
	s.WriteString("\n\n")
	s.WriteString(menuStyle.Render(m.config.GlobalSummary()))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   _____ ____ ____  _____ ___   ___  _
  |  ___/ ___| __ )|_   _/ _ \ / _ \| |
  | |_ | |   |  _ \  | || | | | | | | |
  |  _|| |___| |_) | | || |_| | |_| | |___
  |_|   \____|____/  |_| \___/ \___/|_____|
`
	return lipgloss.NewStyle().Foreground(ledRed).Render(logo)
}

// Run starts the TUI application
func Run(opts converter.CSVOptions) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
