// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats. Each normaliser knows how to extract
// plain text from one domain.Format.
//
// Normalisers are registered with a Registry at startup.
package normalisers
