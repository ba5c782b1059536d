package tokens

import (
	"sort"
)

// Usage accumulates counts for one key of a Tally.
type Usage struct {
	Segments   int `json:"segments" yaml:"segments"`
	Bytes      int `json:"bytes" yaml:"bytes"`
	Tokens     int `json:"tokens" yaml:"tokens"`
	Suppressed int `json:"suppressed" yaml:"suppressed"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		Segments:   u.Segments + o.Segments,
		Bytes:      u.Bytes + o.Bytes,
		Tokens:     u.Tokens + o.Tokens,
		Suppressed: u.Suppressed + o.Suppressed,
	}
}

// Tally accumulates token usage by key. It is not safe for concurrent use.
type Tally struct {
	counter Counter
	usage   map[string]Usage
}

// NewTally creates a tally. A nil counter uses NewEstimatingCounter.
func NewTally(counter Counter) *Tally {
	if counter == nil {
		counter = NewEstimatingCounter()
	}
	return &Tally{
		counter: counter,
		usage:   make(map[string]Usage),
	}
}

// Add records one segment under key. When text is empty but n is not, the
// token estimate is made from the byte count alone.
func (t *Tally) Add(key, text string, n int, suppressed bool) {
	u := Usage{Segments: 1, Bytes: n}
	if text != "" {
		u.Tokens = t.counter.Count(text)
	} else {
		u.Tokens = t.counter.CountBytes(n)
	}
	if suppressed {
		u.Suppressed = 1
	}
	t.usage[key] = t.usage[key].Add(u)
}

// Get returns the usage recorded under key.
func (t *Tally) Get(key string) Usage {
	return t.usage[key]
}

// Keys returns the recorded keys in sorted order.
func (t *Tally) Keys() []string {
	keys := make([]string, 0, len(t.usage))
	for k := range t.usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the sum over all keys.
func (t *Tally) Total() Usage {
	var total Usage
	for _, u := range t.usage {
		total = total.Add(u)
	}
	return total
}

// Snapshot returns a copy of the recorded usage.
func (t *Tally) Snapshot() map[string]Usage {
	out := make(map[string]Usage, len(t.usage))
	for k, u := range t.usage {
		out[k] = u
	}
	return out
}

// Reset clears all recorded usage.
func (t *Tally) Reset() {
	clear(t.usage)
}
