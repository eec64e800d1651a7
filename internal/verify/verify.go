// Package verify checks that a pipeline root holds everything the dashboard reads.
package verify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/supermart-cli/internal/analytics"
	"github.com/KaramelBytes/supermart-cli/internal/artifacts"
	"github.com/KaramelBytes/supermart-cli/internal/utils"
)

// Check is the outcome for one required file.
type Check struct {
	Path        string
	Description string
	Present     bool
	Size        int64
	// JSON fields are only set for .json files.
	IsJSON      bool
	JSONValid   bool
	JSONError   string
	NotObject   bool
	KeyCount    int
	MissingKeys []string
	// Err records a stat failure other than absence.
	Err string
}

// OK reports whether the file is present and, for JSON, parsed with every required key.
func (c Check) OK() bool {
	if !c.Present || c.Err != "" {
		return false
	}
	if c.IsJSON && (!c.JSONValid || c.NotObject) {
		return false
	}
	return len(c.MissingKeys) == 0
}

// Report is the ordered list of checks.
type Report struct {
	Root   string
	Checks []Check
}

// OK is true when every check passed.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if !c.OK() {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

type required struct {
	path        string
	description string
	keys        []string
}

func requiredFiles(l artifacts.Layout) []required {
	return []required{
		{l.InputPath(), "Dataset", nil},
		{l.ModelPath(), "XGBoost Model", nil},
		{l.ScalerPath(), "Feature Scaler", nil},
		{l.EncodersPath(), "Label Encoders", nil},
		{l.AnalyticsPath(), "Analytics Data", analytics.RequiredKeys},
		{l.MetricsPath(), "Model Metrics", nil},
	}
}

// Run inspects every required file. Problems are recorded in the report,
// never returned.
func Run(layout artifacts.Layout) *Report {
	r := &Report{Root: layout.Root}
	for _, f := range requiredFiles(layout) {
		c := Check{Path: layout.Rel(f.path), Description: f.description}
		size, ok, err := utils.FileSize(f.path)
		switch {
		case err != nil:
			c.Err = err.Error()
		case ok:
			c.Present = true
			c.Size = size
			if strings.HasSuffix(f.path, ".json") {
				checkJSON(&c, f.path, f.keys)
			}
		}
		r.Checks = append(r.Checks, c)
	}
	return r
}

func checkJSON(c *Check, path string, keys []string) {
	c.IsJSON = true
	b, err := os.ReadFile(path)
	if err != nil {
		c.JSONError = err.Error()
		return
	}
	var raw json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&raw); err != nil {
		c.JSONError = err.Error()
		return
	}
	if dec.More() {
		c.JSONError = "trailing data after JSON value"
		return
	}
	c.JSONValid = true
	var doc map[string]json.RawMessage
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) || json.Unmarshal(raw, &doc) != nil {
		c.NotObject = true
		return
	}
	c.KeyCount = len(doc)
	for _, k := range keys {
		if _, ok := doc[k]; !ok {
			c.MissingKeys = append(c.MissingKeys, k)
		}
	}
}

// Markdown renders one diagnostic line per file and a closing verdict.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[SETUP CHECK]\n")
	for _, c := range r.Checks {
		switch {
		case c.Err != "":
			fmt.Fprintf(&b, "✗ %s: %s - %s\n", c.Description, c.Path, c.Err)
			continue
		case !c.Present:
			fmt.Fprintf(&b, "✗ %s: %s - NOT FOUND\n", c.Description, c.Path)
			continue
		}
		fmt.Fprintf(&b, "✓ %s: %s (%d bytes)\n", c.Description, c.Path, c.Size)
		if !c.IsJSON {
			continue
		}
		switch {
		case !c.JSONValid:
			fmt.Fprintf(&b, "  ✗ Invalid JSON in %s: %s\n", c.Path, c.JSONError)
		case c.NotObject:
			fmt.Fprintf(&b, "  ✗ %s is not a JSON object\n", c.Path)
		case len(c.MissingKeys) > 0:
			fmt.Fprintf(&b, "  ⚠ Missing keys: %s\n", strings.Join(c.MissingKeys, ", "))
		case c.Description == "Analytics Data":
			fmt.Fprintf(&b, "  ✓ Analytics data valid with %d keys\n", c.KeyCount)
		}
	}
	b.WriteString("\n")
	if r.OK() {
		b.WriteString("All files are present and valid.\n")
	} else {
		b.WriteString("Some files are missing or invalid. Run `supermart run` to regenerate them.\n")
	}
	return b.String()
}
