package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	ChallengeSentFunc    func(n ChallengeNotice) error
	ProposalSentFunc     func(n MatchNotice) error
	ProposalAcceptedFunc func(n MatchNotice) error
	MatchCancelledFunc   func(n MatchNotice) error
	MatchFinishedFunc    func(n MatchNotice) error

	// Call records
	ChallengeSentCalls    []ChallengeNotice
	ProposalSentCalls     []MatchNotice
	ProposalAcceptedCalls []MatchNotice
	MatchCancelledCalls   []MatchNotice
	MatchFinishedCalls    []MatchNotice
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChallengeSentCalls = nil
	m.ProposalSentCalls = nil
	m.ProposalAcceptedCalls = nil
	m.MatchCancelledCalls = nil
	m.MatchFinishedCalls = nil
}

func (m *Mock) ChallengeSent(ctx context.Context, n ChallengeNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChallengeSentCalls = append(m.ChallengeSentCalls, n)
	if m.ChallengeSentFunc != nil {
		return m.ChallengeSentFunc(n)
	}
	return nil
}

func (m *Mock) ProposalSent(ctx context.Context, n MatchNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProposalSentCalls = append(m.ProposalSentCalls, n)
	if m.ProposalSentFunc != nil {
		return m.ProposalSentFunc(n)
	}
	return nil
}

func (m *Mock) ProposalAccepted(ctx context.Context, n MatchNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProposalAcceptedCalls = append(m.ProposalAcceptedCalls, n)
	if m.ProposalAcceptedFunc != nil {
		return m.ProposalAcceptedFunc(n)
	}
	return nil
}

func (m *Mock) MatchCancelled(ctx context.Context, n MatchNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MatchCancelledCalls = append(m.MatchCancelledCalls, n)
	if m.MatchCancelledFunc != nil {
		return m.MatchCancelledFunc(n)
	}
	return nil
}

func (m *Mock) MatchFinished(ctx context.Context, n MatchNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MatchFinishedCalls = append(m.MatchFinishedCalls, n)
	if m.MatchFinishedFunc != nil {
		return m.MatchFinishedFunc(n)
	}
	return nil
}

// Counts returns how many times each method was called, keyed by method name.
func (m *Mock) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"ChallengeSent":    len(m.ChallengeSentCalls),
		"ProposalSent":     len(m.ProposalSentCalls),
		"ProposalAccepted": len(m.ProposalAcceptedCalls),
		"MatchCancelled":   len(m.MatchCancelledCalls),
		"MatchFinished":    len(m.MatchFinishedCalls),
	}
}
