package migrate

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// configV3 splits the single download pause in two. The old delay_millis
// applied both after a failed URL and between images; v3 keeps its value
// for the failed-URL pause and lets the between-images pause take its
// default.
var configV3 = Step{
	Version:     3,
	Description: "rename download.delay_millis to retry_delay_millis",
	Upgrade:     upgradeConfigV3,
}

func upgradeConfigV3(data []byte) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse v2 config: %w", err)
	}

	if dl, ok := doc["download"].(map[string]any); ok {
		if v, ok := dl["delay_millis"]; ok {
			delete(dl, "delay_millis")
			if _, exists := dl["retry_delay_millis"]; !exists {
				dl["retry_delay_millis"] = v
			}
		}
	}
	doc["version"] = int64(3)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode v3 config: %w", err)
	}
	return buf.Bytes(), nil
}
