package handlers

import (
	"net/http"
	"sync"
)

// StartupStep is one named initialization step
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus is a snapshot of initialization progress
type StartupStatus struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// Startup lets the server listen before initialization finishes. Until
// MarkReady is called every request except /readyz gets 503.
type Startup struct {
	mu      sync.RWMutex
	status  StartupStatus
	handler http.Handler
}

// NewStartup tracks the given steps in order
func NewStartup(steps ...string) *Startup {
	s := &Startup{status: StartupStatus{Current: "Initializing..."}}
	for _, name := range steps {
		s.status.Steps = append(s.status.Steps, StartupStep{Name: name})
	}
	return s
}

// Begin records the step currently running
func (s *Startup) Begin(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Current = step
}

// Complete marks a step as done and updates progress
func (s *Startup) Complete(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.status.Steps {
		if s.status.Steps[i].Name == step {
			s.status.Steps[i].Completed = true
		}
		if s.status.Steps[i].Completed {
			completed++
		}
	}
	if len(s.status.Steps) > 0 {
		s.status.Progress = completed * 100 / len(s.status.Steps)
	}
}

// MarkReady starts routing requests to h
func (s *Startup) MarkReady(h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
	s.status.Ready = true
	s.status.Current = "Server ready"
	s.status.Progress = 100
}

// Status returns a copy of the current progress
func (s *Startup) Status() StartupStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Steps = append([]StartupStep(nil), s.status.Steps...)
	return st
}

func (s *Startup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/readyz" {
		st := s.Status()
		code := http.StatusOK
		if !st.Ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, st)
		return
	}

	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h == nil {
		w.Header().Set("Retry-After", "2")
		respondWithError(w, http.StatusServiceUnavailable, "server is starting", "", nil)
		return
	}
	h.ServeHTTP(w, r)
}
