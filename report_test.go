package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintInstructions(t *testing.T) {
	var buf bytes.Buffer
	printInstructions(&buf, "/opt/macports", "/tmp/macports", syncCmd)

	out := buf.String()
	for _, want := range []string{
		`export MP_PATH="/opt/macports"`,
		"$ " + syncCmd,
		"sudo rm -rf /tmp/macports",
		"sudo rm -rf /opt/macports /tmp/macports",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("instructions should contain %q:\n%s", want, out)
		}
	}
}
