// Package export reads Letterboxd ratings exports and normalizes their rows.
//
// Rows arrive with unordered, variably named columns depending on which tool
// produced the export; a fixed alias table selects the reference URI, rating,
// title, year, and watch date fields. Malformed rows never raise: they parse
// to nothing and the caller skips them with a visible warning.
package export
