// Command reelsync syncs a Letterboxd ratings export to TMDB and Trakt:
// authenticate against each service, resolve references through the identity
// cache, reconcile against remote state, and submit batched rating changes.
package main
