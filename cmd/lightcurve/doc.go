// Package main provides the interactive light-curve classifier. It trains an
// LSTM on the learn*.txt samples of a folder and predicts the number of
// planets behind a light curve typed in flux/time pair by pair.
package main
