// Package server hosts the Fiber HTTP service behind `toolcache serve`: the
// request middleware chain (request id, access log, JSON errors) and the
// read-only ToolLookup dependency that route packages query. Routes live in
// internal/server/routes and are attached by the CLI after NewApp returns, so
// keep exports narrow and accept explicit dependencies.
package server
