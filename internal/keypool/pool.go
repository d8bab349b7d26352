// Package keypool manages provider credentials and rotation.
//
// A Pool holds an ordered set of credentials per provider family. When a
// call fails with a quota or auth error, the failing credential is retired
// and the pool advances to the next active credential in insertion order.
// Retired credentials are not reused within the process lifetime unless the
// pool is explicitly reset.
package keypool

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolExhausted is returned by Acquire when a family has no active
// credentials left.
var ErrPoolExhausted = errors.New("keypool: all credentials exhausted")

// State is the lifecycle state of a credential.
type State int

const (
	// StateActive means the credential can be handed out.
	StateActive State = iota
	// StateExhausted means the credential hit a quota or rate limit.
	StateExhausted
	// StateInvalid means the credential was rejected by the provider.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	case StateInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Credential is a single provider API key. The Key is the secret; ID is a
// stable identifier safe to log.
type Credential struct {
	// ID identifies the credential within its family (e.g., "gemini/1").
	ID string
	// Family is the provider family this credential belongs to.
	Family string
	// Key is the secret API key.
	Key string
}

// FailureKind tells the pool why a credential failed, which determines the
// state it transitions to.
type FailureKind int

const (
	// FailureQuota covers rate limits, quota exhaustion, and timeouts
	// treated as rate-limit-like. The credential becomes exhausted.
	FailureQuota FailureKind = iota
	// FailureAuth covers authentication rejections. The credential
	// becomes invalid.
	FailureAuth
)

type entry struct {
	cred  Credential
	state State
}

// Pool holds credentials for every configured provider family and is the
// only owner of credential state. Safe for concurrent use; the lock is
// never held across network calls.
type Pool struct {
	mu       sync.Mutex
	families map[string][]*entry
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{families: make(map[string][]*entry)}
}

// Add appends keys for a family in the given order. IDs are assigned as
// "<family>/<n>" with n starting at 1.
func (p *Pool) Add(family string, keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, key := range keys {
		n := len(p.families[family]) + 1
		p.families[family] = append(p.families[family], &entry{
			cred: Credential{
				ID:     fmt.Sprintf("%s/%d", family, n),
				Family: family,
				Key:    key,
			},
			state: StateActive,
		})
	}
}

// Acquire returns the first active credential for the family, or
// ErrPoolExhausted when none remain. The returned credential is a copy;
// the pool retains ownership of its state.
func (p *Pool) Acquire(family string) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.families[family] {
		if e.state == StateActive {
			return e.cred, nil
		}
	}
	return Credential{}, fmt.Errorf("%w: family %q", ErrPoolExhausted, family)
}

// ReportFailure retires a credential after a failed call. FailureQuota
// marks it exhausted, FailureAuth marks it invalid. Reporting a credential
// that was already retired by a concurrent caller is a no-op, so two
// in-flight requests sharing a credential cannot retire two keys for one
// failure. Rotation itself never returns an error; the next Acquire
// reports exhaustion.
func (p *Pool) ReportFailure(cred Credential, kind FailureKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.families[cred.Family] {
		if e.cred.ID != cred.ID {
			continue
		}
		if e.state != StateActive {
			return
		}
		if kind == FailureAuth {
			e.state = StateInvalid
		} else {
			e.state = StateExhausted
		}
		zap.L().Warn("credential retired",
			zap.String("credential", cred.ID),
			zap.String("state", e.state.String()),
		)
		return
	}
}

// Reset restores every credential in the family to active. Used when an
// operator knows quotas have refreshed.
func (p *Pool) Reset(family string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.families[family] {
		e.state = StateActive
	}
}

// Snapshot returns the current state of every credential in the family,
// in insertion order.
func (p *Pool) Snapshot(family string) map[string]State {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]State, len(p.families[family]))
	for _, e := range p.families[family] {
		out[e.cred.ID] = e.state
	}
	return out
}

// ActiveCount returns how many credentials remain active for the family.
func (p *Pool) ActiveCount(family string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.families[family] {
		if e.state == StateActive {
			n++
		}
	}
	return n
}

// Size returns the total number of credentials configured for the family.
func (p *Pool) Size(family string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.families[family])
}
