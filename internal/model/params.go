// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// PARAMETER ERRORS
// =============================================================================

var (
	// ErrUnknownParam is returned for a key outside the fixed parameter set.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrParamRange is returned for a value outside a parameter's range.
	ErrParamRange = errors.New("parameter out of range")
)

// =============================================================================
// PARAMETER SPECS
// =============================================================================

// ParamSpec describes one generation knob.
type ParamSpec struct {
	Key         string
	Default     float64
	Min         float64
	Max         float64
	Step        float64
	Description string
}

// Integral reports whether the knob only accepts whole numbers.
func (s ParamSpec) Integral() bool {
	return s.Step == 1
}

// Label returns the key in title case ("top_k" -> "Top K").
func (s ParamSpec) Label() string {
	words := strings.Split(s.Key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var paramSpecs = []ParamSpec{
	{Key: "temperature", Default: 0.85, Min: 0.1, Max: 2, Step: 0.05, Description: "Creativity level (0.1-2.0)"},
	{Key: "top_k", Default: 70, Min: 1, Max: 100, Step: 1, Description: "Vocabulary diversity (1-100)"},
	{Key: "top_p", Default: 0.9, Min: 0.1, Max: 1, Step: 0.05, Description: "Response focus (0.1-1.0)"},
	{Key: "repeat_penalty", Default: 1.1, Min: 1, Max: 2, Step: 0.05, Description: "Repetition prevention (1.0-2.0)"},
	{Key: "presence_penalty", Default: 0.5, Min: 0, Max: 1, Step: 0.05, Description: "New info encouragement (0-1.0)"},
	{Key: "frequency_penalty", Default: 0.5, Min: 0, Max: 1, Step: 0.05, Description: "Word variation (0-1.0)"},
	{Key: "mirostat", Default: 2, Min: 0, Max: 2, Step: 1, Description: "Dynamic adjustment (0-2)"},
	{Key: "mirostat_tau", Default: 5, Min: 0, Max: 10, Step: 0.05, Description: "Surprise level (0-10)"},
	{Key: "mirostat_eta", Default: 0.1, Min: 0, Max: 1, Step: 0.05, Description: "Learning rate (0-1.0)"},
}

// ParamSpecs returns the knob descriptions in display order.
func ParamSpecs() []ParamSpec {
	out := make([]ParamSpec, len(paramSpecs))
	copy(out, paramSpecs)
	return out
}

// LookupParam returns the spec for key.
func LookupParam(key string) (ParamSpec, bool) {
	for _, s := range paramSpecs {
		if s.Key == key {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// =============================================================================
// PARAM SET
// =============================================================================

// ParamSet holds one value per knob. Every knob is always present, so the
// JSON form always carries all nine keys.
type ParamSet struct {
	Temperature      float64 `json:"temperature"`
	TopK             float64 `json:"top_k"`
	TopP             float64 `json:"top_p"`
	RepeatPenalty    float64 `json:"repeat_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	Mirostat         float64 `json:"mirostat"`
	MirostatTau      float64 `json:"mirostat_tau"`
	MirostatEta      float64 `json:"mirostat_eta"`
}

// DefaultParams returns the fixed default vector.
func DefaultParams() ParamSet {
	return ParamSet{
		Temperature:      0.85,
		TopK:             70,
		TopP:             0.9,
		RepeatPenalty:    1.1,
		PresencePenalty:  0.5,
		FrequencyPenalty: 0.5,
		Mirostat:         2,
		MirostatTau:      5,
		MirostatEta:      0.1,
	}
}

func (p *ParamSet) field(key string) *float64 {
	switch key {
	case "temperature":
		return &p.Temperature
	case "top_k":
		return &p.TopK
	case "top_p":
		return &p.TopP
	case "repeat_penalty":
		return &p.RepeatPenalty
	case "presence_penalty":
		return &p.PresencePenalty
	case "frequency_penalty":
		return &p.FrequencyPenalty
	case "mirostat":
		return &p.Mirostat
	case "mirostat_tau":
		return &p.MirostatTau
	case "mirostat_eta":
		return &p.MirostatEta
	}
	return nil
}

// Get returns the value of key.
func (p ParamSet) Get(key string) (float64, error) {
	f := p.field(key)
	if f == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}
	return *f, nil
}

// Set assigns value to key after checking it against the knob's range.
// The set is left unchanged on error.
func (p *ParamSet) Set(key string, value float64) error {
	spec, ok := LookupParam(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}
	if err := checkValue(spec, value); err != nil {
		return err
	}
	*p.field(key) = value
	return nil
}

// Reset restores the default vector.
func (p *ParamSet) Reset() {
	*p = DefaultParams()
}

// IsDefault reports whether p equals the default vector.
func (p ParamSet) IsDefault() bool {
	return p == DefaultParams()
}

// Validate checks every knob against its range.
func (p ParamSet) Validate() error {
	for _, spec := range paramSpecs {
		if err := checkValue(spec, *p.field(spec.Key)); err != nil {
			return err
		}
	}
	return nil
}

// Map returns the set as a key/value map.
func (p ParamSet) Map() map[string]float64 {
	m := make(map[string]float64, len(paramSpecs))
	for _, spec := range paramSpecs {
		m[spec.Key] = *p.field(spec.Key)
	}
	return m
}

func checkValue(spec ParamSpec, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < spec.Min || v > spec.Max {
		return fmt.Errorf("%w: %s=%g (allowed %g-%g)", ErrParamRange, spec.Key, v, spec.Min, spec.Max)
	}
	if spec.Integral() && v != math.Trunc(v) {
		return fmt.Errorf("%w: %s must be a whole number, got %g", ErrParamRange, spec.Key, v)
	}
	return nil
}

// =============================================================================
// JSON
// =============================================================================

type paramSetAlias ParamSet

// UnmarshalJSON fills keys missing from data with their defaults.
func (p *ParamSet) UnmarshalJSON(data []byte) error {
	a := paramSetAlias(DefaultParams())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = ParamSet(a)
	return nil
}

// ParseParams strictly decodes a JSON object of knobs. Unknown keys and
// out-of-range values are rejected; missing keys take their defaults.
func ParseParams(data string) (ParamSet, error) {
	a := paramSetAlias(DefaultParams())
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return ParamSet{}, err
	}
	if dec.More() {
		return ParamSet{}, errors.New("unexpected data after params object")
	}
	p := ParamSet(a)
	if err := p.Validate(); err != nil {
		return ParamSet{}, err
	}
	return p, nil
}
