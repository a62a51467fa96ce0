package entsync

// Notifier surfaces layer conditions to the end user in user terms
// ("you appear to be offline"). It is the host UI's notification channel;
// implementations MUST be cheap and non-blocking because the gateway calls
// them on request paths. Wrap slow sinks with notify/async.
type Notifier interface {
	Warn(msg string)
	Error(msg string)
}

// NopNotifier is the default when no host UI channel is injected.
type NopNotifier struct{}

func (NopNotifier) Warn(string)  {}
func (NopNotifier) Error(string) {}
