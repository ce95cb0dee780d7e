package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// Schema versions written with each key. Values stored before envelopes
// existed decode as 0.0.0.
var schemaVersions = map[string]*semver.Version{
	KeyHistory:  semver.MustParse("20.0.0"),
	KeyState:    semver.MustParse("20.0.0"),
	KeyTemplate: semver.MustParse("1.0.0"),
	KeyPrompts:  semver.MustParse("2.0.0"),
}

var legacyVersion = semver.MustParse("0.0.0")

var errNewerSchema = errors.New("stored schema is newer than this build")

type envelope struct {
	Version string          `json:"version"`
	Value   json.RawMessage `json:"value"`
}

// migration rewrites a value whose version satisfies applies.
type migration struct {
	applies *semver.Constraints
	apply   func(json.RawMessage) (json.RawMessage, error)
}

var migrations = map[string][]migration{
	KeyHistory: {{applies: mustConstraint("< 20.0.0"), apply: migrateLegacyHistory}},
	KeyPrompts: {{applies: mustConstraint("< 2.0.0"), apply: migrateLegacyPrompts}},
}

// SchemaVersion is the schema version written for key, or "" for an unknown
// key.
func SchemaVersion(key string) string {
	v, ok := schemaVersions[key]
	if !ok {
		return ""
	}
	return v.String()
}

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

func wrap(key string, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: schemaVersions[key].String(), Value: raw})
}

// unwrap returns the current-schema value stored in data, running any
// migrations registered for older versions.
func unwrap(key string, data []byte) (json.RawMessage, error) {
	value, version := splitEnvelope(data)
	current := schemaVersions[key]
	if version.Major() > current.Major() {
		return nil, fmt.Errorf("%w: %s > %s", errNewerSchema, version, current)
	}
	if !version.LessThan(current) {
		return value, nil
	}
	for _, m := range migrations[key] {
		if !m.applies.Check(version) {
			continue
		}
		var err error
		if value, err = m.apply(value); err != nil {
			return nil, fmt.Errorf("migrate %s from %s: %w", key, version, err)
		}
	}
	return value, nil
}

func splitEnvelope(data []byte) (json.RawMessage, *semver.Version) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version != "" && env.Value != nil {
		if v, err := semver.NewVersion(env.Version); err == nil {
			return env.Value, v
		}
	}
	return data, legacyVersion
}

// Legacy history entries used "content" for the YAML text, carried no id and
// stamped time as unix milliseconds.
func migrateLegacyHistory(raw json.RawMessage) (json.RawMessage, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, ok := item["yaml"]; !ok {
			if c, ok := item["content"]; ok {
				item["yaml"] = c
				delete(item, "content")
			}
		}
		if id, _ := item["id"].(string); id == "" {
			item["id"] = uuid.New().String()
		}
		if ms, ok := item["timestamp"].(float64); ok {
			item["timestamp"] = time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
		}
		if _, ok := item["kind"]; !ok {
			item["kind"] = "initial"
		}
	}
	return json.Marshal(items)
}

// Legacy prompts were a single string holding the initial prompt.
func migrateLegacyPrompts(raw json.RawMessage) (json.RawMessage, error) {
	var initial string
	if err := json.Unmarshal(raw, &initial); err != nil {
		// Already an object; leave it for the decoder.
		return raw, nil
	}
	return json.Marshal(map[string]string{"initial": initial})
}
