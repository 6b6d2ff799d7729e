// Package testutil provides shared helpers for outlook-agent tests:
// a controllable clock, token record generators, and httptest glue.
package testutil
