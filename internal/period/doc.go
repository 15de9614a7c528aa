// Package period derives calendar buckets from record dates and converts
// integer period keys to and from their display labels.
//
// Period keys are the only values used for range filtering and ordering.
// Labels are a presentation projection and are never sorted.
package period
