// Package calendar is a single-date picker over timezone-naive calendar
// dates, with a viewport-aware popup placement and a bubbletea front end.
package calendar
