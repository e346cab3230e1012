package migrate

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// configV2 moves the flat v1 output keys into the [output] table:
//
//	output_dir  -> output.dir
//	output_file -> output.deck
//	image_dir   -> output.images
//
// An [output] table that already exists wins over the flat keys.
var configV2 = Step{
	Version:     2,
	Description: "move flat output keys into [output]",
	Upgrade:     upgradeConfigV2,
}

var v1OutputKeys = []struct{ from, to string }{
	{"output_dir", "dir"},
	{"output_file", "deck"},
	{"image_dir", "images"},
}

func upgradeConfigV2(data []byte) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse v1 config: %w", err)
	}

	output, _ := doc["output"].(map[string]any)
	if output == nil {
		output = map[string]any{}
	}
	for _, k := range v1OutputKeys {
		v, ok := doc[k.from]
		if !ok {
			continue
		}
		delete(doc, k.from)
		if _, exists := output[k.to]; !exists {
			output[k.to] = v
		}
	}
	if len(output) > 0 {
		doc["output"] = output
	}
	doc["version"] = int64(2)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode v2 config: %w", err)
	}
	return buf.Bytes(), nil
}
