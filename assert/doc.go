/*
Package assert helps gather many possible failures into one error.

Shutdown and validation paths often need to keep going after something fails, and report everything that went wrong at the end.
A [Collector] makes that a little less tedious than maintaining a slice of errors.
*/
package assert
