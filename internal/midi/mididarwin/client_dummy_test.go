//go:build !darwin

package mididarwin

import (
	"errors"
	"testing"

	"github.com/leandrodaf/noteclock/internal/logger"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func TestDummyClientReportsUnavailable(t *testing.T) {
	c, err := NewInputClient(&contracts.EngineOptions{Logger: logger.NewNopLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListDevices(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListDevices error = %v", err)
	}
	if err := c.SelectDevice(0); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SelectDevice error = %v", err)
	}
	c.StartCapture(make(chan contracts.InputMessage, 1))
	if err := c.Stop(); err != nil {
		t.Errorf("Stop error = %v", err)
	}
}
