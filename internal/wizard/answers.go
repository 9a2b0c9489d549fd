package wizard

// Answers is an insertion-ordered key/value mapping with unique keys
type Answers[V comparable] struct {
	keys   []string
	values map[string]V
}

// NewAnswers returns an empty mapping
func NewAnswers[V comparable]() *Answers[V] {
	return &Answers[V]{values: make(map[string]V)}
}

// Set stores v under key. Overwriting keeps the key in place.
func (a *Answers[V]) Set(key string, v V) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

// Get returns the value stored under key
func (a *Answers[V]) Get(key string) (V, bool) {
	if a == nil {
		var zero V
		return zero, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of answers
func (a *Answers[V]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the keys in insertion order
func (a *Answers[V]) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Map returns an unordered copy
func (a *Answers[V]) Map() map[string]V {
	out := make(map[string]V, a.Len())
	if a == nil {
		return out
	}
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy
func (a *Answers[V]) Clone() *Answers[V] {
	c := NewAnswers[V]()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, a.values[k])
	}
	return c
}
