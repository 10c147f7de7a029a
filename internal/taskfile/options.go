package taskfile

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

const (
	stepOptionsDecoderErrorTemplateConstant = "building step option decoder: %w"
	stepOptionsDecodeErrorTemplateConstant  = "decoding step options: %w"
	secondsPerFractionConstant              = float64(time.Second)
)

// StepOptions carries the optional execution settings a step may set under
// its "with" mapping.
type StepOptions struct {
	WorkingDirectory     string            `mapstructure:"cwd"`
	EnvironmentVariables map[string]string `mapstructure:"env"`
	TimeoutSeconds       float64           `mapstructure:"timeout_secs"`
	IdleTimeoutSeconds   float64           `mapstructure:"idle_timeout_secs"`
	Stream               *bool             `mapstructure:"stream"`
}

// WallClockTimeout converts the configured timeout to a duration. Zero means
// unbounded.
func (options StepOptions) WallClockTimeout() time.Duration {
	return secondsToDuration(options.TimeoutSeconds)
}

// IdleTimeout converts the configured idle timeout to a duration. Zero means
// unbounded.
func (options StepOptions) IdleTimeout() time.Duration {
	return secondsToDuration(options.IdleTimeoutSeconds)
}

// DecodeStepOptions maps a step's "with" settings onto StepOptions. Unknown
// keys are rejected so typos fail loudly instead of being ignored.
func DecodeStepOptions(withSettings map[string]any) (StepOptions, error) {
	options := StepOptions{}
	if len(withSettings) == 0 {
		return options, nil
	}

	decoderConfiguration := &mapstructure.DecoderConfig{
		Result:      &options,
		ErrorUnused: true,
	}
	decoder, decoderError := mapstructure.NewDecoder(decoderConfiguration)
	if decoderError != nil {
		return StepOptions{}, fmt.Errorf(stepOptionsDecoderErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(withSettings); decodeError != nil {
		return StepOptions{}, fmt.Errorf(stepOptionsDecodeErrorTemplateConstant, decodeError)
	}
	return options, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * secondsPerFractionConstant)
}
