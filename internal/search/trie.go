package search

import (
	"strings"
	"sync"
)

const maxSuggestions = 10

// Record is the projection stored at a terminal node so suggestions can
// be served without a second database lookup.
type Record struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Cover string `json:"cover"`
}

type node struct {
	children map[rune]*node
	end      bool
	records  []Record
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// Trie answers "titles starting with prefix" lookups in memory. It is
// rebuilt from the novels table at boot and updated on create/rename.
// Gin runs handlers on concurrent goroutines, so all access goes through
// the lock.
type Trie struct {
	mu   sync.RWMutex
	root *node
	size int
}

func NewTrie() *Trie {
	return &Trie{root: newNode()}
}

// Insert indexes a title under its lower-cased, trimmed form. Re-indexing
// the same title+id pair is a no-op.
func (t *Trie) Insert(title string, rec Record) {
	word := strings.ToLower(strings.TrimSpace(title))
	if word == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, ch := range word {
		child, ok := n.children[ch]
		if !ok {
			child = newNode()
			n.children[ch] = child
		}
		n = child
	}
	n.end = true

	for _, existing := range n.records {
		if existing.ID == rec.ID {
			return
		}
	}
	n.records = append(n.records, rec)
	t.size++
}

// Suggest returns up to 10 records whose title starts with prefix,
// de-duplicated by id. An unindexed or empty prefix yields no results.
func (t *Trie) Suggest(prefix string) []Record {
	word := strings.ToLower(strings.TrimSpace(prefix))
	if word == "" {
		return []Record{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.root
	for _, ch := range word {
		child, ok := n.children[ch]
		if !ok {
			return []Record{}
		}
		n = child
	}

	results := make([]Record, 0, maxSuggestions)
	seen := make(map[int]bool)
	collect(n, seen, &results)
	return results
}

func collect(n *node, seen map[int]bool, results *[]Record) {
	if len(*results) >= maxSuggestions {
		return
	}
	if n.end {
		for _, rec := range n.records {
			if len(*results) >= maxSuggestions {
				return
			}
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			*results = append(*results, rec)
		}
	}
	for _, child := range n.children {
		collect(child, seen, results)
		if len(*results) >= maxSuggestions {
			return
		}
	}
}

// Reset discards the whole structure ahead of a full rebuild.
func (t *Trie) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = newNode()
	t.size = 0
}

// Len reports the number of indexed title records.
func (t *Trie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}
