package flowaggregator

// counter counts occurrences of keys and remembers the order in which
// each distinct key was first seen.
type counter[K comparable] struct {
	counts map[K]uint64
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]uint64)}
}

func (c *counter[K]) inc(key K) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter[K]) total() uint64 {
	var sum uint64
	for _, n := range c.counts {
		sum += n
	}
	return sum
}

// each calls fn for every key in first-seen order.
func (c *counter[K]) each(fn func(key K, count uint64)) {
	for _, k := range c.order {
		fn(k, c.counts[k])
	}
}
