// Package extract converts fetched bodies into plain text for analysis.
//
// Binary document formats (PDF, Word) are unpacked to their text runs;
// HTML is reduced to its readable content; everything else passes
// through as-is. Extraction failures surface as errors so the caller
// can skip analysis for that URL instead of feeding garbage to a model.
package extract
