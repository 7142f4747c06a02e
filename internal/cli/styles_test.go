package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMessages(t *testing.T) {
	tests := []struct {
		name   string
		format func(string) string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: successIcon},
		{name: "error", format: FormatError, icon: errorIcon},
		{name: "warning", format: FormatWarning, icon: warningIcon},
		{name: "info", format: FormatInfo, icon: infoIcon},
		{name: "title", format: FormatTitle, icon: ScrubIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.format("done")
			assert.Contains(t, got, tt.icon)
			assert.Contains(t, got, "done")
		})
	}
}

func TestRenderBox(t *testing.T) {
	got := RenderBox("Summary", "body")
	assert.Contains(t, got, "Summary")
	assert.Contains(t, got, "body")
}
