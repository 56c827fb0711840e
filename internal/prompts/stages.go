// Package prompts holds the instruction text for each vision stage of the
// extraction pipeline and helpers that compose the final prompt sent to the
// model.
package prompts

import (
	"encoding/json"
	"slices"
)

// Stage represents a pipeline stage that sends a vision prompt.
type Stage string

// Valid pipeline prompt stages.
const (
	StageClassify Stage = "classify"
	StageExtract  Stage = "extract"
	StageVerify   Stage = "verify"
)

var stages = []Stage{
	StageClassify,
	StageExtract,
	StageVerify,
}

// Stages returns the list of valid prompt stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stages, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}
