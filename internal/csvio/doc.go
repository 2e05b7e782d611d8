// Package csvio sniffs, reads and writes delimited text files.
//
// Sniffing is heuristic. The encoding probe tries UTF-8 on the first
// [EncodingSampleSize] bytes and falls back to Windows-1251; the delimiter
// probe counts comma, semicolon and tab in the first [DelimiterSampleSize]
// bytes and reports through [DelimiterGuess] whether it had to fall back to
// comma because none of them occurred.
//
// Reading and writing both follow the usual quoted-field grammar, so any
// table written by [Write] loads back cell for cell with [Load], including
// cells that contain the delimiter, quotes or line breaks.
//
// Nothing in this package logs. Failures come back as [*ReadError] or
// [*WriteError] wrapping the underlying cause.
package csvio
