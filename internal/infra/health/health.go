// Package health exposes liveness and readiness endpoints. Readiness follows
// the venue connection and carries the last reported connectivity state.
package health

import (
	"net/http"
	"sync"
)

var (
	mu     sync.RWMutex
	ready  bool
	reason = "starting"
)

// Set records readiness and the state behind it, e.g. "connected" or
// "disconnected".
func Set(v bool, why string) {
	mu.Lock()
	ready, reason = v, why
	mu.Unlock()
}

func Ready() bool {
	mu.RLock()
	defer mu.RUnlock()
	return ready
}

func Reason() string {
	mu.RLock()
	defer mu.RUnlock()
	return reason
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func Readyz(w http.ResponseWriter, r *http.Request) {
	mu.RLock()
	v, why := ready, reason
	mu.RUnlock()
	if v {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	http.Error(w, "not ready: "+why, http.StatusServiceUnavailable)
}
