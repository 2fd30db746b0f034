package ui

import "testing"

func TestHelpers(t *testing.T) {
	prev := Plain
	t.Cleanup(func() { Plain = prev })

	Plain = false
	if got := Success("ok"); got != ColorGreen+"ok"+ColorReset {
		t.Errorf("Success = %q", got)
	}
	if got := Info("note"); got != ColorDim+ColorYellow+"note"+ColorReset {
		t.Errorf("Info = %q", got)
	}

	Plain = true
	if got := Error("boom"); got != "boom" {
		t.Errorf("plain Error = %q", got)
	}
}
