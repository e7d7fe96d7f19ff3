package document

import "fmt"

// List is an ordered sequence of independently tagged nodes.
type List struct {
	items []Node
}

func NewList() *List {
	return &List{}
}

func (l *List) Append(n Node) *List {
	l.items = append(l.items, n)
	return l
}

func (l *List) Len() int { return len(l.items) }

func (l *List) Tag() string { return TagList }

// Items returns the nodes in order.
func (l *List) Items() []Node {
	out := make([]Node, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) At(i int) (Node, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexInvalid, i, len(l.items))
	}
	return l.items[i], nil
}

// MapAt returns element i when it is a Map.
func (l *List) MapAt(i int) (*Map, error) {
	n, err := l.At(i)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: element %d is %s, want map", ErrNodeType, i, n.Tag())
	}
	return m, nil
}

// Payload: count, then per element tag and payload.
func (l *List) encode(w *writer) error {
	w.buf.WriteInt32(int32(len(l.items)))
	for i, n := range l.items {
		if err := w.writeNode(n); err != nil {
			return fmt.Errorf("list element %d: %w", i, err)
		}
	}
	return nil
}

func (l *List) decode(r *reader) error {
	count, err := r.buf.ReadInt32()
	if err != nil {
		return err
	}
	l.items = make([]Node, 0, min(int(max(count, 0)), r.buf.Remaining()))
	for i := int32(0); i < count; i++ {
		n, err := r.readNode()
		if err != nil {
			return fmt.Errorf("list element %d: %w", i, err)
		}
		l.items = append(l.items, n)
	}
	return nil
}
