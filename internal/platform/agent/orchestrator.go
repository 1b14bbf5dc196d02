package agent

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"
)

// Runnable is the subset of *Base an orchestrator needs to manage an
// agent's lifecycle, satisfied by anything embedding Base.
type Runnable interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetStatus() Status
}

// Orchestrator starts, stops, and reports on a registered set of agents as
// a unit, mirroring §4.3's AgentOrchestrator.
type Orchestrator struct {
	mu     sync.Mutex
	agents map[string]Runnable
	order  []string
}

// NewOrchestrator constructs an empty Orchestrator.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{agents: make(map[string]Runnable)}
}

// Register adds agent under name. Registering a duplicate name is an
// error.
func (o *Orchestrator) Register(name string, a Runnable) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.agents[name]; exists {
		return crerr.Newf("agent %s already registered", name)
	}
	o.agents[name] = a
	o.order = append(o.order, name)
	return nil
}

// StartAll starts every registered agent in registration order. A failure
// starting one agent is logged by the caller via the returned map and does
// not prevent the remaining agents from starting.
func (o *Orchestrator) StartAll(ctx context.Context) map[string]error {
	o.mu.Lock()
	order := append([]string(nil), o.order...)
	agents := make(map[string]Runnable, len(o.agents))
	for k, v := range o.agents {
		agents[k] = v
	}
	o.mu.Unlock()

	errs := make(map[string]error)
	for _, name := range order {
		if err := agents[name].Start(ctx); err != nil {
			errs[name] = err
		}
	}
	return errs
}

// StopAll stops every registered agent in registration order, collecting
// any errors rather than stopping early.
func (o *Orchestrator) StopAll(ctx context.Context) map[string]error {
	o.mu.Lock()
	order := append([]string(nil), o.order...)
	agents := make(map[string]Runnable, len(o.agents))
	for k, v := range o.agents {
		agents[k] = v
	}
	o.mu.Unlock()

	errs := make(map[string]error)
	for _, name := range order {
		if err := agents[name].Stop(ctx); err != nil {
			errs[name] = err
		}
	}
	return errs
}

// SystemStatus is the aggregate view returned by Status.
type SystemStatus struct {
	Agents        map[string]Status
	TotalAgents   int
	RunningAgents int
	HealthyAgents int
}

// Status returns the status of every registered agent plus summary counts.
func (o *Orchestrator) Status() SystemStatus {
	o.mu.Lock()
	agents := make(map[string]Runnable, len(o.agents))
	for k, v := range o.agents {
		agents[k] = v
	}
	o.mu.Unlock()

	out := SystemStatus{Agents: make(map[string]Status, len(agents))}
	for name, a := range agents {
		s := a.GetStatus()
		out.Agents[name] = s
		out.TotalAgents++
		if s.Running {
			out.RunningAgents++
		}
		if s.Healthy {
			out.HealthyAgents++
		}
	}
	return out
}
