package connector

import (
	"fmt"

	mapstructure "github.com/go-viper/mapstructure/v2"
)

const (
	configurationDecoderErrorTemplateConstant = "unable to prepare configuration decoder: %w"
	configurationDecodeErrorTemplateConstant  = "invalid connector configuration: %w"
	configurationTagNameConstant              = "mapstructure"
	configurationListSeparatorConstant        = ","
)

// DecodeConfiguration decodes a loosely typed configuration map into a connector-specific struct
// using mapstructure tags. Durations may be given as strings such as "5s" and lists as
// comma-separated strings. Unknown keys are rejected so typos surface as connection errors.
func DecodeConfiguration(configuration Configuration, target any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          configurationTagNameConstant,
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(configurationListSeparatorConstant),
		),
	})
	if decoderError != nil {
		return fmt.Errorf(configurationDecoderErrorTemplateConstant, decoderError)
	}

	if decodeError := decoder.Decode(map[string]any(configuration)); decodeError != nil {
		return fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return nil
}
