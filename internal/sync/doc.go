// Package sync reconciles parsed export records against each remote rating
// service: snapshot existing ratings, decide skip/create/update per record,
// and submit effects in bounded per-kind batches. One coordinating goroutine
// drives the whole run; only identity resolution fans out.
package sync
