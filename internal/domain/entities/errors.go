package entities

import "errors"

// Speaker errors
var (
	ErrInvalidVoiceStrategy = errors.New("invalid voice strategy")
	ErrInvalidVoiceProvider = errors.New("invalid voice provider")
	ErrMissingVoiceSample   = errors.New("voice sample required for cloning")
)
