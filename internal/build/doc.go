// Package build provides the canonical sync pipeline of docsync.
//
// Every execution path (sync, plan, watch, tests) routes through
// SyncService. A run is strictly sequential and each stage finishes over the
// whole page tree before the next starts:
//
//	load -> tree -> render -> disambiguate -> resolve -> lookup -> write -> upload
//
// Any fatal error aborts the run. Pages written before the failure stay
// written; nothing is rolled back and nothing is retried.
package build
