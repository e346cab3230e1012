// config_v2_test.go tests the v1 to v2 config migration that moves the flat
// output keys into the [output] table.

package migrate

import (
	"testing"

	"github.com/BurntSushi/toml"
)

func TestUpgradeConfigV2(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output map[string]any
		absent []string
	}{
		{
			name:   "flat keys move into output",
			input:  "output_dir = \"build\"\noutput_file = \"talk.pptx\"\nimage_dir = \"pics\"\n",
			output: map[string]any{"dir": "build", "deck": "talk.pptx", "images": "pics"},
			absent: []string{"output_dir", "output_file", "image_dir"},
		},
		{
			name:   "existing output table wins",
			input:  "image_dir = \"old\"\n[output]\nimages = \"new\"\n",
			output: map[string]any{"images": "new"},
			absent: []string{"image_dir"},
		},
		{
			name:   "unrelated sections survive",
			input:  "[log]\nlevel = \"debug\"\n",
			output: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := upgradeConfigV2([]byte(tt.input))
			if err != nil {
				t.Fatalf("upgrade: %v", err)
			}
			doc := map[string]any{}
			if err := toml.Unmarshal(out, &doc); err != nil {
				t.Fatalf("re-parse: %v\n%s", err, out)
			}
			if v, _ := doc["version"].(int64); v != 2 {
				t.Errorf("version = %v, want 2", doc["version"])
			}
			for _, k := range tt.absent {
				if _, ok := doc[k]; ok {
					t.Errorf("key %q should have been removed", k)
				}
			}
			if tt.output == nil {
				if _, ok := doc["output"]; ok {
					t.Error("unexpected [output] table")
				}
				if _, ok := doc["log"]; !ok {
					t.Error("[log] table lost")
				}
				return
			}
			got, _ := doc["output"].(map[string]any)
			for k, want := range tt.output {
				if got[k] != want {
					t.Errorf("output.%s = %v, want %v", k, got[k], want)
				}
			}
		})
	}
}

func TestUpgradeConfigV2_Malformed(t *testing.T) {
	if _, err := upgradeConfigV2([]byte("not = = toml")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigChainUpgradesV1(t *testing.T) {
	out, version, err := Config.Upgrade([]byte("image_dir = \"x\"\n"), 1)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if version != 3 {
		t.Fatalf("version = %d, want 3", version)
	}
	doc := map[string]any{}
	if err := toml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if out, _ := doc["output"].(map[string]any); out["images"] != "x" {
		t.Errorf("output.images = %v, want x", out["images"])
	}
}
