package realtime

import (
	"sort"
	"sync"

	"github.com/mauv0809/rivalry/internal/chat"
)

// Feed is the client-side copy of one match log, kept newest first.
// Reset replaces it from a full read; Apply merges pushed rows.
type Feed struct {
	mu       sync.Mutex
	messages []chat.Message
}

func NewFeed(initial []chat.Message) *Feed {
	f := &Feed{}
	f.Reset(initial)
	return f
}

// Reset replaces the local log with a full, strongly consistent read.
func (f *Feed) Reset(full []chat.Message) {
	msgs := append([]chat.Message(nil), full...)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	f.mu.Lock()
	f.messages = msgs
	f.mu.Unlock()
}

// Apply merges one pushed row and reports whether the feed changed.
// A row already present is only replaced when its proposal leaves SENT,
// so a late copy of an older state never rolls an answer back.
func (f *Feed) Apply(msg chat.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.messages {
		if existing.ID != msg.ID {
			continue
		}
		if !proposalChanged(existing, msg) {
			return false
		}
		f.messages[i] = msg
		return true
	}

	at := sort.Search(len(f.messages), func(i int) bool {
		return !f.messages[i].CreatedAt.After(msg.CreatedAt)
	})
	f.messages = append(f.messages, chat.Message{})
	copy(f.messages[at+1:], f.messages[at:])
	f.messages[at] = msg
	return true
}

// ApplyEvent applies the message carried by a message event.
func (f *Feed) ApplyEvent(ev Event) bool {
	if ev.Message == nil {
		return false
	}
	return f.Apply(*ev.Message)
}

// Messages returns a snapshot, newest first.
func (f *Feed) Messages() []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Message(nil), f.messages...)
}

func proposalChanged(old, updated chat.Message) bool {
	if old.Proposal == nil || updated.Proposal == nil {
		return false
	}
	return old.Proposal.Status == chat.ProposalSent && updated.Proposal.Status != chat.ProposalSent
}
