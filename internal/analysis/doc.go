// Package analysis turns the observations of a finished sleep window into a
// per-interval sleep-quality estimate. It owns the Scorer port through which
// an external language model is reached, the prompt sent to it and the
// parsing of its response, while keeping the details of any particular model
// provider out of the tracking core.
package analysis
