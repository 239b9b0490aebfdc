// Package notify delivers triggered-alert notifications. Every sink is
// best-effort: one failing channel never blocks the others.
package notify

// Sink is a single notification channel.
type Sink interface {
	Name() string
	Send(title, message string) error
}

// Dispatch sends a notification through every sink, collecting which
// channels succeeded and why the rest failed.
func Dispatch(sinks []Sink, title, message string) (sent []string, failed map[string]string) {
	for _, s := range sinks {
		if err := s.Send(title, message); err != nil {
			if failed == nil {
				failed = make(map[string]string)
			}
			failed[s.Name()] = err.Error()
			continue
		}
		sent = append(sent, s.Name())
	}
	return sent, failed
}
