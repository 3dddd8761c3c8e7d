package entity

import "time"

type BackendState string

const (
	BackendChecking BackendState = "checking"
	BackendOnline   BackendState = "online"
	BackendError    BackendState = "error"   // answered with non-2xx
	BackendOffline  BackendState = "offline" // unreachable
)

type BackendHealth struct {
	State     BackendState  `json:"state"`
	CheckedAt *time.Time    `json:"checked_at,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
}
