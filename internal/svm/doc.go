// Package svm evaluates already trained support vector machines and turns
// their decision values into probabilities with Platt scaling. Models are
// read from JSON; training happens elsewhere.
package svm
