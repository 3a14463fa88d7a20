// Package model defines the data structures shared by the crawler, pipeline,
// report and database packages.
//
// This package contains the following main types:
//   - Document: A single HTML file of a corpus with its link count and hash
//   - Ranking: A page to score mapping produced by one ranking method
//   - Agreement: How far the sampling and iterative rankings are apart
//   - RankReport: The full result of ranking one corpus
//
// Models live in their own package so that every stage of the pipeline can
// share them without import cycles. All of them serialize to JSON for report
// output and database storage.
package model
