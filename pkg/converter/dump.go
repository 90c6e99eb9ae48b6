package converter

import (
	"fmt"
	"io"
	"strings"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Summary describes a preset on two lines
func (p Preset) Summary() string {
	var s strings.Builder
	for i, pc := range p.ProgramChanges {
		fmt.Fprintf(&s, "PC%d: %-3s %3d  ", i+1, onOff(pc.Enabled), pc.Program)
	}
	for i, cc := range p.ControlChanges {
		fmt.Fprintf(&s, "CC%d: %-3s %3d %3d  ", i+1, onOff(cc.Enabled), cc.Controller, cc.Value)
	}
	s.WriteString("\n")
	fmt.Fprintf(&s, "Switch 1: %-3s  Switch 2: %-3s  ", onOff(p.Switches[0]), onOff(p.Switches[1]))
	fmt.Fprintf(&s, "Exp A: %-3s %3d %3d-%-3d  ", onOff(p.ExpressionA.Enabled), p.ExpressionA.Controller, p.ExpressionA.Min, p.ExpressionA.Max)
	fmt.Fprintf(&s, "Exp B: %-3s %3d %3d-%-3d  ", onOff(p.ExpressionB.Enabled), p.ExpressionB.Controller, p.ExpressionB.Min, p.ExpressionB.Max)
	fmt.Fprintf(&s, "Note: %-3s %3d", onOff(p.Note.Enabled), p.Note.Value)
	return s.String()
}

// GlobalSummary describes the device-wide settings
func (c *Config) GlobalSummary() string {
	ch := c.Channels
	return fmt.Sprintf("MIDI channels  PC1: %d  PC2: %d  PC3: %d  PC4: %d  PC5: %d  CC1: %d  CC2: %d  ExpA: %d  ExpB: %d  Note: %d\n"+
		"Direct select: %s  Running status: %s  Merge: %s  Switch 1: %s  Switch 2: %s\n"+
		"Exp A calibration: %d-%d  Exp B calibration: %d-%d",
		ch.ProgramChange[0], ch.ProgramChange[1], ch.ProgramChange[2], ch.ProgramChange[3], ch.ProgramChange[4],
		ch.ControlChange[0], ch.ControlChange[1], ch.ExpressionA, ch.ExpressionB, ch.Note,
		onOff(c.DirectSelect), onOff(c.RunningStatus), onOff(c.Merge), onOff(c.Switch1), onOff(c.Switch2),
		c.Calibration.AMin, c.Calibration.AMax, c.Calibration.BMin, c.Calibration.BMax)
}

// WriteSummary prints every preset followed by the global settings
func WriteSummary(w io.Writer, cfg *Config) error {
	for i, p := range cfg.Presets {
		bank, slot := BankSlot(i)
		if _, err := fmt.Fprintf(w, "Bank %d preset %d\n%s\n", bank, slot, indent(p.Summary())); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", indent(cfg.GlobalSummary()))
	return err
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
