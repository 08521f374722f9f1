// Package trainer runs the full-batch training loop of a sequence classifier.
//
// A Trainer moves through Initializing, Running and Completed. Every
// ReportEvery epochs, and at the final epoch, it reports progress and, when
// the loss is strictly below the best loss seen at any earlier report,
// saves a checkpoint. Improvements between reporting boundaries are never
// checkpointed.
package trainer
