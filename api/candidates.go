// File: api/candidates.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ordered, consume-once list of resolved candidate addresses.

package api

import (
	"github.com/eapache/queue"
)

// CandidateList is a FIFO of candidates in resolution order. Each candidate
// is handed out once; the list is not rewound or cached.
type CandidateList struct {
	q *queue.Queue
}

// NewCandidateList builds a list holding cs in order.
func NewCandidateList(cs ...Candidate) *CandidateList {
	l := &CandidateList{q: queue.New()}
	for _, c := range cs {
		l.q.Add(c)
	}
	return l
}

// Push appends a candidate at the tail.
func (l *CandidateList) Push(c Candidate) {
	l.q.Add(c)
}

// Len returns the number of candidates not yet consumed.
func (l *CandidateList) Len() int {
	if l == nil || l.q == nil {
		return 0
	}
	return l.q.Length()
}

// Next removes and returns the head candidate.
func (l *CandidateList) Next() (Candidate, bool) {
	if l.Len() == 0 {
		return Candidate{}, false
	}
	return l.q.Remove().(Candidate), true
}

// Drain consumes the remaining candidates and returns them in order.
func (l *CandidateList) Drain() []Candidate {
	out := make([]Candidate, 0, l.Len())
	for {
		c, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}
