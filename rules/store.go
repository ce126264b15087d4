package rules

import (
	"sort"
	"strings"
	"sync"
)

// Store maps watched commands to their Rules. It is safe for concurrent use;
// the Rules it hands out must be treated as read-only.
type Store struct {
	mutex sync.RWMutex
	rules map[string]*Rule
	order []string // commands, longest first
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{rules: make(map[string]*Rule)}
}

// Put registers rule under its command, replacing a previous rule for the same
// command.
func (s *Store) Put(rule *Rule) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.rules[rule.Command]; !exists {
		s.order = append(s.order, rule.Command)
		sort.Slice(s.order, func(i, j int) bool {
			if len(s.order[i]) != len(s.order[j]) {
				return len(s.order[i]) > len(s.order[j])
			}
			return s.order[i] < s.order[j]
		})
	}
	s.rules[rule.Command] = rule
}

// Get returns the rule registered for exactly command.
func (s *Store) Get(command string) (*Rule, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rule, ok := s.rules[command]
	return rule, ok
}

// Find returns the rule whose command is a substring of cmdline. When several
// commands match, the longest one wins, then the lexically smallest.
func (s *Store) Find(cmdline string) (*Rule, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, command := range s.order {
		if strings.Contains(cmdline, command) {
			return s.rules[command], true
		}
	}
	return nil, false
}

// Len returns the number of registered rules.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.rules)
}

// Rules returns the registered rules in lookup order.
func (s *Store) Rules() []*Rule {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rules := make([]*Rule, len(s.order))
	for i, command := range s.order {
		rules[i] = s.rules[command]
	}
	return rules
}
