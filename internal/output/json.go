package output

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
)

// JSONFormatter renders status as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatStatus renders a status snapshot as JSON.
func (f *JSONFormatter) FormatStatus(status ratelimit.Status) (string, error) {
	var (
		data []byte
		err  error
	)

	view := newStatusView(status)
	if f.Indent {
		data, err = json.MarshalIndent(view, "", "  ")
	} else {
		data, err = json.Marshal(view)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// YAMLFormatter renders status as YAML.
type YAMLFormatter struct{}

// FormatStatus renders a status snapshot as YAML.
func (f *YAMLFormatter) FormatStatus(status ratelimit.Status) (string, error) {
	data, err := yaml.Marshal(newStatusView(status))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
