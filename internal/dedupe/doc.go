// Package dedupe provides a time-limited claim cache. The scheduled-message
// dispatcher claims each due item before delivering it, so a second run that
// overlaps the first skips items already in flight.
package dedupe
