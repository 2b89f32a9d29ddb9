package spectrogram

import "container/list"

type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// lru is a least-recently-used cache bounded by the total size of its values.
type lru[K comparable, V any] struct {
	budget int64
	used   int64
	order  *list.List
	items  map[K]*list.Element
	sizeOf func(V) int64
}

func newLRU[K comparable, V any](budget int64, sizeOf func(V) int64) *lru[K, V] {
	return &lru[K, V]{
		budget: budget,
		order:  list.New(),
		items:  make(map[K]*list.Element),
		sizeOf: sizeOf,
	}
}

func (c *lru[K, V]) get(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// put stores value and evicts from the tail until the budget holds. The most
// recent entry is always kept, even when it alone exceeds the budget.
func (c *lru[K, V]) put(key K, value V) {
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}

	e := &entry[K, V]{key: key, value: value, size: c.sizeOf(value)}
	c.items[key] = c.order.PushFront(e)
	c.used += e.size

	for c.used > c.budget && c.order.Len() > 1 {
		c.remove(c.order.Back())
	}
}

func (c *lru[K, V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.items, e.key)
	c.used -= e.size
}

func (c *lru[K, V]) clear() {
	c.order.Init()
	clear(c.items)
	c.used = 0
}

func (c *lru[K, V]) len() int {
	return c.order.Len()
}
