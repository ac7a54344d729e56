package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keySchemaVersion = "schema_version"
	keyBatch         = "batch"
	keyFrame         = "frame"
	keyMonitor       = "monitor"
	keyWorkload      = "workload"
	keyLogging       = "logging"
	keyHistory       = "history"
	keyTelemetry     = "telemetry"
)

// knownTopLevelKeys lists the YAML keys that correspond to exported Config fields.
// Keys not in this list are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keySchemaVersion: true,
	keyBatch:         true,
	keyFrame:         true,
	keyMonitor:       true,
	keyWorkload:      true,
	keyLogging:       true,
	keyHistory:       true,
	keyTelemetry:     true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file: nothing to merge.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes data into a fresh zero value of the section named
// by key and replaces that section of target.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keySchemaVersion:
		return replaceSection(data, &target.SchemaVersion)
	case keyBatch:
		return replaceSection(data, &target.Batch)
	case keyFrame:
		return replaceSection(data, &target.Frame)
	case keyMonitor:
		return replaceSection(data, &target.Monitor)
	case keyWorkload:
		return replaceSection(data, &target.Workload)
	case keyLogging:
		return replaceSection(data, &target.Logging)
	case keyHistory:
		return replaceSection(data, &target.History)
	case keyTelemetry:
		return replaceSection(data, &target.Telemetry)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

func replaceSection[T any](data []byte, dst *T) error {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}
