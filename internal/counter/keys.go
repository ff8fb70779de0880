package counter

import "context"

// HandleKey applies the keyboard binding for key and reports whether the key
// is bound. Space and "+" increment, "-" decrements.
func (c *Counter) HandleKey(key string) bool {
	switch key {
	case " ", "Space", "+":
		c.Increment()
		return true
	case "-":
		c.Decrement()
		return true
	}
	return false
}

// Listen feeds keys into the counter until ctx is done or keys is closed.
// Returning detaches the listener; nothing else holds on to the counter.
func (c *Counter) Listen(ctx context.Context, keys <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			c.HandleKey(k)
		}
	}
}
