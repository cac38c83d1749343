// Package letterboxd scrapes the Letterboxd website for the two things the
// sync needs: the TMDB cross-reference link on a film page, and the signed-in
// account data export zip. There is no public API, so both go through plain
// page fetches with browser-like headers and a cookie-jar session.
package letterboxd
