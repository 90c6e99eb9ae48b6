package port

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testClient() *Client {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAwaitSkipsRejectedMessages(t *testing.T) {
	msgs := make(chan []byte, 3)
	msgs <- []byte{0xF0, 0x7E, 0xF7}
	msgs <- []byte{0xF0, 0x00, 0x20, 0x32, 0xF7}

	accept := func(b []byte) error {
		if len(b) != 5 {
			return errors.New("wrong length")
		}
		return nil
	}

	got, err := testClient().await(context.Background(), msgs, accept)
	if err != nil {
		t.Fatalf("await() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0xF0, 0x00, 0x20, 0x32, 0xF7}) {
		t.Errorf("await() = % X", got)
	}
}

func TestAwaitNilAcceptTakesFirst(t *testing.T) {
	msgs := make(chan []byte, 1)
	msgs <- []byte{0xF0, 0xF7}

	got, err := testClient().await(context.Background(), msgs, nil)
	if err != nil || len(got) != 2 {
		t.Errorf("await() = % X, %v", got, err)
	}
}

func TestAwaitTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := testClient().await(ctx, make(chan []byte), nil)
	if err == nil {
		t.Fatal("await() should time out")
	}
}

func TestAwaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient().await(ctx, make(chan []byte), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("await() error = %v, want context.Canceled", err)
	}
}
