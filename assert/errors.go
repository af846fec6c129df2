package assert

import (
	"fmt"
	"strings"
)

// Collector collects errors and joins them with a separator when reported.
//
// A Collector is itself an error, so it can be returned directly and matched with [errors.Is] or [errors.As] against anything it holds.
//
// Note that a Collector is not concurrency safe.
type Collector struct {
	errs    []error
	joinStr string
}

// CollectErrors creates a new Collector, optionally with a separator other than the default of "\n".
func CollectErrors(joinString ...string) *Collector {
	joinStr := "\n"
	if len(joinString) > 0 {
		joinStr = joinString[0]
	}
	return &Collector{joinStr: joinStr}
}

// Add records err if it's not nil.
func (c *Collector) Add(err error) *Collector {
	if err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// Addf records an error created with [fmt.Errorf], so "%w" may be used.
func (c *Collector) Addf(format string, args ...any) *Collector {
	return c.Add(fmt.Errorf(format, args...))
}

// Len reports how many errors have been recorded.
func (c *Collector) Len() int {
	return len(c.errs)
}

// Result returns nil if nothing was recorded, otherwise the Collector itself.
// Use this when returning, since an empty Collector is still a non-nil error.
func (c *Collector) Result() error {
	if len(c.errs) > 0 {
		return c
	}
	return nil
}

func (c *Collector) Error() string {
	var buf strings.Builder
	for i, err := range c.errs {
		if i > 0 {
			buf.WriteString(c.joinStr)
		}
		buf.WriteString(err.Error())
	}
	return buf.String()
}

func (c *Collector) Unwrap() []error {
	return c.errs
}
