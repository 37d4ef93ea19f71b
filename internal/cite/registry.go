package cite

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// numberedKey matches keys that carry their own citation number, such as
// ref_5, reference-5, cite:5 or bib5.
var numberedKey = regexp.MustCompile(`(?i)^(?:ref|reference|cite|citation|bib)[_\-:]?(\d+)$`)

// ExplicitNumber returns the number embedded in a numbered key.
func ExplicitNumber(key string) (int, bool) {
	m := numberedKey.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// IsCitationLike reports whether key looks like a generated citation key.
func IsCitationLike(key string) bool {
	_, ok := ExplicitNumber(key)
	return ok
}

// Registry assigns IEEE-style numeric ids to citation keys in order of first
// appearance. A Registry belongs to one document.
type Registry struct {
	ids      map[string]int
	used     map[int]bool
	reserved map[int]bool
	order    []string
	next     int
}

// NewRegistry returns an empty registry whose first automatic id is 1.
func NewRegistry() *Registry {
	return &Registry{
		ids:      make(map[string]int),
		used:     make(map[int]bool),
		reserved: make(map[int]bool),
		next:     1,
	}
}

// Reserve holds back the number of a numbered key so that unnumbered keys
// assigned before it never take that number. Other keys are ignored.
func (r *Registry) Reserve(key string) {
	if n, ok := ExplicitNumber(key); ok {
		r.reserved[n] = true
	}
}

// Assign returns the id for key, allocating one on first sight. Numbered
// keys take their literal number and move the cursor past it, unless another
// key already holds that number; other keys take the next id that is
// neither used nor reserved.
func (r *Registry) Assign(key string) int {
	if id, ok := r.ids[key]; ok {
		return id
	}
	id, explicit := ExplicitNumber(key)
	if explicit && !r.used[id] {
		if id >= r.next {
			r.next = id + 1
		}
	} else {
		id = r.Next()
		r.next = id + 1
	}
	r.ids[key] = id
	r.used[id] = true
	r.order = append(r.order, key)
	return id
}

// Lookup returns the id already assigned to key.
func (r *Registry) Lookup(key string) (int, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Keys returns keys in discovery order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len reports how many distinct keys were assigned.
func (r *Registry) Len() int { return len(r.order) }

// Next reports the id the next unnumbered key would receive.
func (r *Registry) Next() int {
	n := r.next
	for r.used[n] || r.reserved[n] {
		n++
	}
	return n
}

// FormatMarker renders ids as a compressed marker: ascending, duplicates
// removed, consecutive runs collapsed to "[a]–[b]", groups joined by ", ".
// Ids below 1 render as a single trailing "[?]".
func FormatMarker(ids []int) string {
	var known []int
	unknown := false
	for _, id := range ids {
		if id < 1 {
			unknown = true
			continue
		}
		known = append(known, id)
	}
	sort.Ints(known)

	var parts []string
	for i := 0; i < len(known); {
		j := i
		for j+1 < len(known) && known[j+1] <= known[j]+1 {
			j++
		}
		if known[i] == known[j] {
			parts = append(parts, "["+strconv.Itoa(known[i])+"]")
		} else {
			parts = append(parts, "["+strconv.Itoa(known[i])+"]–["+strconv.Itoa(known[j])+"]")
		}
		i = j + 1
	}
	if unknown {
		parts = append(parts, "[?]")
	}
	return strings.Join(parts, ", ")
}
