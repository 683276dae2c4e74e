package otel

// SignalURL exposes signalURL to the external test package.
var SignalURL = signalURL
