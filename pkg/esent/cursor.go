package esent

//Cursor walks an ordinal-indexed sequence: tables of a database, columns or records of a table,
//values of a record or a multi-value. It is forward only, finite and restartable with Reset.
//Iteration stops at the first error, which Err then reports.
type Cursor[T any] struct {
	count func() (int, error)
	get   func(int) (T, error)

	pos int
	n   int
	cur T
	err error
}

func newCursor[T any](count func() (int, error), get func(int) (T, error)) *Cursor[T] {
	c := &Cursor[T]{count: count, get: get}
	c.Reset()
	return c
}

//Reset rewinds the cursor to before the first element and clears any error
func (c *Cursor[T]) Reset() {
	var zero T
	c.pos = 0
	c.cur = zero
	c.n, c.err = c.count()
}

//Next advances to the next element, returning false at the end or on error
func (c *Cursor[T]) Next() bool {
	if c.err != nil || c.pos >= c.n {
		return false
	}
	v, err := c.get(c.pos)
	if err != nil {
		c.err = err
		c.pos = c.n
		return false
	}
	c.cur = v
	c.pos++
	return true
}

//Value is the element Next moved to
func (c *Cursor[T]) Value() T { return c.cur }

//Err is the error that stopped iteration, nil at a clean end
func (c *Cursor[T]) Err() error { return c.err }

//Count is the number of elements in the sequence
func (c *Cursor[T]) Count() (int, error) { return c.count() }

//Get fetches element i directly without moving the cursor
func (c *Cursor[T]) Get(i int) (T, error) {
	n, err := c.count()
	if err != nil {
		var zero T
		return zero, err
	}
	if i < 0 || i >= n {
		var zero T
		return zero, outOfRange("cursor", i, n)
	}
	return c.get(i)
}
