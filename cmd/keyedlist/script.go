package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/keyed"
	"github.com/vango-dev/keyedlist/pkg/vdom"
)

// Script is a sequence of list states.
type Script struct {
	// Key names the field that identifies object items.
	Key string `json:"key,omitempty"`

	// Steps are the successive list states.
	Steps [][]any `json:"steps"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E020").
			WithDetailf("Could not read %s", path).
			Wrap(err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.New("E020").
			WithDetailf("%s is not valid JSON", path).
			Wrap(err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("E020").WithDetailf("%s has no steps", path)
	}
	return &s, nil
}

// renderItem renders one script item as a list entry.
func renderItem(item any, _ *cell.Cell[int], _ keyed.Source[any]) any {
	return vdom.Li(label(item))
}

func label(item any) string {
	if m, ok := item.(map[string]any); ok {
		for _, k := range []string{"label", "name", "text", "id"} {
			if v, ok := m[k]; ok {
				return fmt.Sprint(v)
			}
		}
	}
	return fmt.Sprint(item)
}

// keyOption picks the key field: the flag, then the script, then config.
func keyOption(flag string, s *Script, fallback string) []keyed.Option {
	key := flag
	if key == "" {
		key = s.Key
	}
	if key == "" {
		key = fallback
	}
	if key == "" {
		return nil
	}
	return []keyed.Option{keyed.WithKey(key)}
}
