package event

// namePool shares one copy of each distinct file and function name. Decoded
// event files repeat the same few names thousands of times.
type namePool struct {
	index map[string]string
}

func newNamePool() *namePool {
	return &namePool{index: make(map[string]string)}
}

// intern returns the pooled copy of s, adding s on first sight.
func (p *namePool) intern(s string) string {
	if pooled, ok := p.index[s]; ok {
		return pooled
	}
	p.index[s] = s
	return s
}

// Len returns the number of distinct names.
func (p *namePool) Len() int {
	return len(p.index)
}

// Intern makes equal names across events share storage and returns the
// number of distinct names.
func Intern(events []Event) int {
	p := newNamePool()
	for i := range events {
		events[i].Filename = p.intern(events[i].Filename)
		events[i].Function = p.intern(events[i].Function)
	}
	return p.Len()
}
