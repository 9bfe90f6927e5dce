// Package download fetches release assets over HTTP with a bounded, fixed
// backoff retry loop. Each attempt is classified as success, retryable server
// error, terminal client error, or transport error; only server errors are
// retried. The destination file is written only by the successful attempt.
package download
