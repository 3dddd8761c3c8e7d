package resize

import "time"

type Option func(*Poller)

// Interval sets the delay between the end of one status poll and the next.
func Interval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

// Timeout bounds the polling phase of a workflow.
func Timeout(d time.Duration) Option {
	return func(p *Poller) {
		p.timeout = d
	}
}

// OnComplete registers a callback run with the submitted dimensions before a
// workflow is marked completed.
func OnComplete(fn CompletionFunc) Option {
	return func(p *Poller) {
		p.onComplete = fn
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Poller) {
		p.recorder = r
	}
}
