package migrate

import (
	"testing"

	"github.com/BurntSushi/toml"
)

func TestUpgradeConfigV3(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "delay becomes retry delay",
			input: "version = 2\n[download]\ndelay_millis = 800\nretry_max = 1\n",
			want:  map[string]any{"retry_delay_millis": int64(800), "retry_max": int64(1)},
		},
		{
			name:  "explicit retry delay wins",
			input: "version = 2\n[download]\ndelay_millis = 800\nretry_delay_millis = 100\n",
			want:  map[string]any{"retry_delay_millis": int64(100)},
		},
		{
			name:  "no download table",
			input: "version = 2\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := upgradeConfigV3([]byte(tt.input))
			if err != nil {
				t.Fatalf("upgradeConfigV3: %v", err)
			}
			doc := map[string]any{}
			if err := toml.Unmarshal(out, &doc); err != nil {
				t.Fatalf("re-parse: %v", err)
			}
			if doc["version"] != int64(3) {
				t.Errorf("version = %v, want 3", doc["version"])
			}
			dl, _ := doc["download"].(map[string]any)
			if len(dl) != len(tt.want) {
				t.Fatalf("download = %v, want %v", dl, tt.want)
			}
			for k, v := range tt.want {
				if dl[k] != v {
					t.Errorf("download.%s = %v, want %v", k, dl[k], v)
				}
			}
		})
	}
}

func TestUpgradeConfigV3_Malformed(t *testing.T) {
	if _, err := upgradeConfigV3([]byte("[download\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
