// Package health provides liveness, readiness and version endpoints.
//
// Liveness (/health) answers as long as the process serves HTTP and is never
// rate limited. Readiness (/ready) runs the registered component checks,
// such as the ledger database ping, and answers 503 when any fails.
package health
