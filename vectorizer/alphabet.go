package vectorizer

import "encoding/json"

// Alphabet maps between strings and dense integer ids in insertion order.
// It backs both the n-gram vocabulary and the class label encoding.
type Alphabet struct {
	toID  map[string]int
	toStr []string
}

// NewAlphabet creates an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{toID: make(map[string]int)}
}

// Add adds s if not already present and returns its id.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.toID[s]; ok {
		return id
	}
	id := len(a.toStr)
	a.toID[s] = id
	a.toStr = append(a.toStr, s)
	return id
}

// Get returns the id for s, or -1 if not found.
func (a *Alphabet) Get(s string) int {
	if id, ok := a.toID[s]; ok {
		return id
	}
	return -1
}

// String returns the entry with the given id.
func (a *Alphabet) String(id int) string {
	return a.toStr[id]
}

// Strings returns a copy of all entries ordered by id.
func (a *Alphabet) Strings() []string {
	return append([]string(nil), a.toStr...)
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.toStr)
}

// MarshalJSON writes the entries ordered by id.
func (a *Alphabet) MarshalJSON() ([]byte, error) {
	entries := a.toStr
	if entries == nil {
		entries = []string{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON restores the entries and rebuilds the reverse index.
func (a *Alphabet) UnmarshalJSON(data []byte) error {
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	a.toID = make(map[string]int, len(entries))
	a.toStr = nil
	for _, e := range entries {
		a.Add(e)
	}
	return nil
}

// EncodeLabels builds the class alphabet from labels in first-seen order and
// returns the encoded labels, each in [0, classes.Size()).
func EncodeLabels(labels []string) (*Alphabet, []int) {
	classes := NewAlphabet()
	encoded := make([]int, len(labels))
	for i, l := range labels {
		encoded[i] = classes.Add(l)
	}
	return classes, encoded
}
