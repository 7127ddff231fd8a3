package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Steel Bars!! 2024", "steel-bars-2024"},
		{"  Premium   Cement  ", "premium-cement"},
		{"Tools & Hardware", "tools-hardware"},
		{"--Already-slugged--", "already-slugged"},
		{"PVC - Pipes", "pvc-pipes"},
		{"Ñandú", "and"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{
		"Steel Bars!! 2024",
		"a  -  b",
		"Tab\tSeparated\nLines",
		"---",
		"MiXeD CaSe 123 ",
		"émigré café",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "input %q", in)
	}
}
