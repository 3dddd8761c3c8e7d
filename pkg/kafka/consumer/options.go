package consumer

import "time"

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

// MaxWait bounds how long a fetch waits for new messages.
func MaxWait(d time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = d
	}
}

// FromBeginning makes a new consumer group start at the oldest retained
// message instead of the newest.
func FromBeginning(v bool) Option {
	return func(c *Consumer) {
		c.fromBeginning = v
	}
}
