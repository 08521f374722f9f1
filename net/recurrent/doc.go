// Package recurrent implements a single layer LSTM sequence classifier with a
// linear head on the last timestep, trained by full backpropagation through
// time and Adam. It satisfies classifier.Classifier.
package recurrent
