// Package notify delivers local-alert style notifications.
package notify

import "context"

// Sink accepts a (title, message) pair and displays or forwards it.
type Sink interface {
	Show(ctx context.Context, title, message string) error
}

// Multi fans a notification out to several sinks. Every sink is attempted;
// the first error is returned.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Show(ctx context.Context, title, message string) error {
	var first error
	for _, s := range m {
		if err := s.Show(ctx, title, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
