package collector

// frontier is the FIFO of players waiting to be expanded.
type frontier struct {
	items []string
	head  int
}

func newFrontier(capacity int) *frontier {
	return &frontier{items: make([]string, 0, capacity)}
}

func (f *frontier) push(puuid string) {
	f.items = append(f.items, puuid)
}

func (f *frontier) pop() (string, bool) {
	if f.head >= len(f.items) {
		return "", false
	}
	puuid := f.items[f.head]
	f.items[f.head] = ""
	f.head++

	// Reclaim the consumed prefix once it dominates the slice
	if f.head > 1024 && f.head*2 >= len(f.items) {
		n := copy(f.items, f.items[f.head:])
		f.items = f.items[:n]
		f.head = 0
	}
	return puuid, true
}

func (f *frontier) Len() int { return len(f.items) - f.head }
