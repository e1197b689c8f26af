package models

import "fmt"

// DataFetchError means no quote or history could be obtained: the provider
// failed and no cache entry existed to fall back on, or the response shape
// was invalid. Fatal to the run.
type DataFetchError struct {
	Symbol string
	Err    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("data fetch for %s: %v", e.Symbol, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// IndicatorError means the history series was too short for a requested
// window. Fatal to the run.
type IndicatorError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("%s needs %d samples, have %d", e.Indicator, e.Need, e.Have)
}

// ChannelError means one specific channel failed to deliver. Non-fatal;
// isolated per channel.
type ChannelError struct {
	Channel ChannelKey
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
