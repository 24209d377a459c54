// Package config loads and validates reflux.json.
//
// The file configures the ambient pieces around the reactive runtime:
// logging, goroutine confinement checks, the demo server, Prometheus metrics
// and OpenTelemetry tracing. Every field is optional; missing fields take
// the defaults returned by New.
//
//	{
//	  "log": {"level": "debug", "format": "json"},
//	  "runtime": {"goroutineCheck": true},
//	  "serve": {"addr": ":8080", "tick": "500ms", "history": 512, "items": 8},
//	  "metrics": {"enabled": true, "namespace": "reflux", "path": "/metrics"},
//	  "tracing": {"enabled": false, "tracer": "reflux"}
//	}
package config
