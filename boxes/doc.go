// Package boxes provides general purpose [pipeline.Box] implementations.
// They're useful for demos and tests, and as examples of how to manage goroutines from lifecycle hooks.
package boxes
