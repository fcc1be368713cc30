// Package sheet turns a published spreadsheet export into schema-free records.
//
// The export is delimited text whose layout is not known ahead of time. Parse
// sniffs it in three steps:
//
//  1. The delimiter is chosen once from the first line (see [DetectDelimiter]).
//  2. Leading title and preamble rows are skipped until the header row is
//     found by content: the row whose second cell is the sentinel label.
//  3. Every following non-blank row becomes a [Record] keyed by the header
//     cell at the same position, or by a synthetic column_<index> name.
//
// Parsing is a pure function of the input text and [Options]; calling it twice
// on the same text yields the same records.
package sheet
