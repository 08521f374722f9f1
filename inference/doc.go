// Package inference classifies a light curve typed in by the user, applying
// exactly the preprocessing used for training: per-sample normalization
// followed by alignment to the trained sequence length.
package inference
