// Package mfsync defines the core types of a master-document
// synchronization system.
//
// One server owns a single authoritative document,
// the _master_.
// Any number of subscribers keep local mirrors of it,
// polling the server for changes.
//
// The version of the document is its _fingerprint_:
// the sha2-256 hash of its exact byte content.
// There is no separate revision counter.
// Two identical contents always share a fingerprint,
// so a subscriber detects change by comparing
// the fingerprint of its own mirror
// against the fingerprint the server reports.
//
// A subscriber chooses, per request, one of three delivery guarantees:
//
//   R    simple request: the server delivers the document and tracks nothing.
//
//   RR   confirmed request-response: the server records the delivery and the
//        subscriber confirms it after storing the content.
//
//   RRA  request-response with asynchronous acknowledgment: like RR, but the
//        acknowledgment may arrive arbitrarily later, out of band.
//
// The subpackages implement the pieces:
// doc holds the versioned master document,
// ledger tracks outstanding RR and RRA deliveries,
// auth verifies subscriber credentials,
// audit records call outcomes,
// engine enforces the protocol contracts and dispatches remote calls,
// httpd and client are the two ends of the HTTP transport,
// and cmd/mfsync ties them all into a command-line tool.
package mfsync
