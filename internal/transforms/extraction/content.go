package extraction

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var errEmptyContent = errors.New("empty model content")

// fencedBlockPattern matches content wrapped in a single markdown code fence.
var fencedBlockPattern = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\s*```$")

// parseModelContent returns the model content as a JSON value, unchanged
// apart from an optional surrounding code fence.
func parseModelContent(content string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, errEmptyContent
	}
	if m := fencedBlockPattern.FindStringSubmatch(trimmed); len(m) > 1 {
		trimmed = strings.TrimSpace(m[1])
	}

	var probe interface{}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(trimmed), nil
}
