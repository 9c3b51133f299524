package xconf

import "testing"

func FuzzParse(f *testing.F) {
	f.Add([]byte("cache:\n  default_ttl: 1h\n"), true)
	f.Add([]byte(`{"cache":{"channel":"c"}}`), false)

	f.Fuzz(func(t *testing.T, data []byte, yaml bool) {
		format := FormatJSON
		if yaml {
			format = FormatYAML
		}
		cfg, err := Parse(data, format)
		if err != nil {
			return
		}
		var out map[string]any
		_ = cfg.Unmarshal("", &out)
	})
}
