// Package lightcurve reads labeled light-curve samples, flux/time pairs with a
// planet count, and turns them into fixed-length normalized sequences stacked
// into one training batch.
//
// A sample file holds one "flux time" pair per line and a "result N" line
// carrying the label. Every sample is normalized against its own statistics,
// never against the corpus.
package lightcurve
