// Package sender implements a fire-and-forget UDP sender used by the self-test harness,
// the CLI and tests. There are no retries and no acknowledgements.
package sender
