// Package server assembles the HTTP service: routes, middleware chain,
// health probes and lifecycle.
//
// # Routes
//
//	POST /chat                streamed chat reply
//	GET  /history             session messages
//	POST /clear               reset a session
//	POST /xiaohongshu/copy    generate one copy
//	GET  /xiaohongshu/scenes  scene catalogue
//	GET  /health              liveness
//	GET  /ready               readiness (ledger ping, upstream health)
//	GET  /version             build information
//	GET  /metrics             Prometheus exposition, when enabled
//
// Any other path gets a JSON 404.
//
// # Usage
//
//	srv := server.New(cfg, server.Dependencies{
//	    Sessions:   sessions,
//	    Agent:      agent,
//	    Copywriter: copySvc,
//	    Provider:   client,
//	    Ledger:     store,
//	    Limiter:    limiter,
//	    Metrics:    collector,
//	    Logger:     logger,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is done and then shuts down gracefully, waiting
// up to proxy.shutdown_timeout for in-flight replies. Signal handling is
// left to the caller.
//
// # Timeouts
//
// Each request carries a deadline of proxy.write_timeout. The connection
// write timeout is a few seconds longer so that a reply cut off by the
// deadline can still deliver its closing fragment and trailer.
package server
