package producer

import "time"

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

// AutoTopicCreation lets the writer create the workflow topic on first write.
func AutoTopicCreation(allow bool) Option {
	return func(p *Producer) {
		p.autoTopic = allow
	}
}
