// Package errors provides structured, coded errors for reflux.
//
// Every error the runtime, reconciler, configuration layer or CLI reports
// carries a short code (e.g. "R010") that maps to a registered template:
//   - a category (runtime, reconcile, config, transport, cli)
//   - a one-line message
//   - a longer explanation
//
// # Usage
//
//	err := errors.New("R010").
//	    WithDetail("job \"render:App\" panicked: index out of range").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R010: Scheduled job panicked
//	//
//	//   job "render:App" panicked: index out of range
//
// Errors implement Unwrap so errors.Is and errors.As see the wrapped cause.
package errors
