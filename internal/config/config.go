package config

import (
	"fmt"
	"sort"
	"strings"

	z "github.com/Oudwins/zog"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/excel"
)

// Config holds the driver configuration.
type Config struct {
	ProgID        string
	Visible       bool
	DisplayAlerts bool
	SheetName     string
	Output        string
	PageSize      int
	Debug         bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ProgID:        automation.DefaultProgID,
		Visible:       true,
		DisplayAlerts: false,
		SheetName:     "売上データ2025",
		Output:        "test.xlsx",
		PageSize:      5000,
	}
}

var configSchema = z.Struct(z.Shape{
	"progID":    z.String().Required(),
	"sheetName": SheetNameString(),
	"output":    z.String().Required(),
	"pageSize":  z.Int().GTE(1).Required(),
})

// SheetNameString is a string schema limited to sheet-name length, counted
// in characters rather than bytes.
func SheetNameString() *z.StringSchema[string] {
	return z.String().TestFunc(sheetNameFits,
		z.Message(fmt.Sprintf("sheet name must contain at most %d character(s)", excel.MaxSheetNameLength)))
}

func sheetNameFits(val any, ctx z.Ctx) bool {
	switch s := val.(type) {
	case string:
		return excel.SheetNameFits(s)
	case *string:
		return s == nil || excel.SheetNameFits(*s)
	}
	return false
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	issues := configSchema.Validate(c)
	if len(issues) == 0 {
		return nil
	}
	sanitized := z.Issues.SanitizeMap(issues)
	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		if strings.HasPrefix(k, "$") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, strings.Join(sanitized[k], ", ")))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
