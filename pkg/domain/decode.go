package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode maps a generic value (typically a map decoded from JSON or YAML) onto out,
// matching keys against json tags. Fields absent from input keep their current value
// in out, which makes Decode usable as a shallow merge. Slices and maps present in
// input replace the existing ones wholesale.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}
