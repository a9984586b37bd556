package scheduler

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/statefile"
)

// MaxSlots bounds the fired-slot history kept on disk.
const MaxSlots = 50

//go:embed runstate.schema.json
var runStateSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// RunState is the persisted list of slot keys that already fired.
type RunState struct {
	LastRunSlots []string `json:"last_run_slots"`

	path string
}

// LoadRunState reads path. A missing, unreadable or invalid file gives
// an empty state; the worst outcome is one extra run inside a window.
func LoadRunState(ctx context.Context, path string, log *zap.Logger) *RunState {
	log = logger.OrNop(log)
	st := &RunState{path: path}

	raw, err := statefile.ReadBytes(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		return st
	}
	if err != nil {
		log.Warn("run state unreadable, starting empty", zap.String("path", path), zap.Error(err))
		return st
	}

	slots, err := decodeRunState(raw)
	if err != nil {
		log.Warn("run state invalid, starting empty", zap.String("path", path), zap.Error(err))
		return st
	}
	st.LastRunSlots = slots
	return st
}

func decodeRunState(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var doc struct {
		LastRunSlots []string `json:"last_run_slots"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return doc.LastRunSlots, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("runstate.schema.json", strings.NewReader(runStateSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("runstate.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	return compiledSchema, nil
}

// Fired reports whether key was marked. A nil state has fired nothing.
func (s *RunState) Fired(key string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.LastRunSlots, key)
}

// Mark records key as fired, keeping only the newest MaxSlots keys.
func (s *RunState) Mark(key string) {
	if key == "" || s.Fired(key) {
		return
	}
	s.LastRunSlots = append(s.LastRunSlots, key)
	if n := len(s.LastRunSlots); n > MaxSlots {
		s.LastRunSlots = append([]string(nil), s.LastRunSlots[n-MaxSlots:]...)
	}
}

func (s *RunState) Save(ctx context.Context) error {
	if s.LastRunSlots == nil {
		s.LastRunSlots = []string{}
	}
	return statefile.WriteJSON(ctx, s.path, s)
}
