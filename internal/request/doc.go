// Package request performs JSON HTTP calls against the version and migration
// services. Transport failures are retried a bounded number of times; empty and
// malformed bodies, as well as business codes carried inside a decoded body, are
// surfaced immediately.
package request
