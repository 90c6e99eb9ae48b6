// Package port sends and receives configuration dumps over MIDI ports.
//
// A MIDI driver must be registered by the program, e.g. by importing
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
package port

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

const sysExBufferSize = 4096

// Client talks to MIDI ports through the registered driver
type Client struct {
	logger *slog.Logger
}

// New creates a Client. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger}
}

// Close releases the MIDI driver
func (c *Client) Close() {
	midi.CloseDriver()
}

// InPorts returns the names of available MIDI input ports
func (c *Client) InPorts() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// OutPorts returns the names of available MIDI output ports
func (c *Client) OutPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// Send transmits a complete SysEx message (including F0/F7) to the named port
func (c *Client) Send(portName string, data []byte) error {
	out, err := midi.FindOutPort(portName)
	if err != nil {
		return fmt.Errorf("output port %q not found: %w", portName, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return fmt.Errorf("failed to open output port %q: %w", portName, err)
	}
	c.logger.Info("sending sysex", "port", out.String(), "bytes", len(data))
	if err := send(midi.Message(data)); err != nil {
		return fmt.Errorf("failed to send sysex: %w", err)
	}
	return nil
}

// Receive listens on the named port until a SysEx message passes accept,
// or ctx is done. Messages failing accept are logged and ignored.
func (c *Client) Receive(ctx context.Context, portName string, accept func([]byte) error) ([]byte, error) {
	in, err := midi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("input port %q not found: %w", portName, err)
	}

	msgs := make(chan []byte, 4)
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if len(msg) == 0 || msg[0] != 0xF0 {
			return
		}
		select {
		case msgs <- append([]byte(nil), msg...):
		default:
		}
	}, midi.UseSysEx(), midi.SysExBufferSize(sysExBufferSize))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", portName, err)
	}
	defer stop()

	c.logger.Info("waiting for sysex", "port", in.String())
	return c.await(ctx, msgs, accept)
}

func (c *Client) await(ctx context.Context, msgs <-chan []byte, accept func([]byte) error) ([]byte, error) {
	for {
		select {
		case msg := <-msgs:
			if accept == nil {
				return msg, nil
			}
			if err := accept(msg); err != nil {
				c.logger.Warn("ignoring sysex", "bytes", len(msg), "reason", err)
				continue
			}
			c.logger.Info("received sysex", "bytes", len(msg))
			return msg, nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.New("timed out waiting for sysex")
			}
			return nil, ctx.Err()
		}
	}
}
