package providers

import (
	"encoding/json"
	"strings"
)

// Labels decodes the tag lists the sites return, which are either plain
// strings or objects carrying the text under "value", "name" or "labelName".
type Labels []string

func (l *Labels) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" || s == `""` {
		*l = nil
		return nil
	}

	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = Clean(plain)
		return nil
	}

	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err != nil {
		// unknown shape: no labels rather than a failed page
		*l = nil
		return nil
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		for _, k := range []string{"value", "name", "labelName"} {
			if v, ok := o[k].(string); ok && strings.TrimSpace(v) != "" {
				out = append(out, strings.TrimSpace(v))
				break
			}
		}
	}
	*l = out
	return nil
}

// Clean trims entries and drops empty ones; never returns nil.
func Clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Text decodes a field that some sites send as a string and others as a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(v))
		return nil
	}
	*t = Text(s)
	return nil
}
