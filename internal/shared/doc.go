// Package shared holds code used across layers that belongs to no single
// one of them.
//
// testutil carries the sample extracts and the log capturing handler used
// by the services, transport and command tests. It must not import other
// internal packages so that any package's tests can depend on it.
package shared
