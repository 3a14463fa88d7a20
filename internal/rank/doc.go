// Package rank computes PageRank over a graph.Graph in two independent ways.
//
// Transition returns the random-surfer distribution for the next page given
// the current one. With probability d the surfer follows one of the current
// page's links; otherwise it jumps to any page. A dangling page jumps to
// any page with equal probability.
//
// Estimate runs one long random walk driven by Transition and returns the
// mean of the per-step distributions. Its output is random; inject a seeded
// source with WithSeed or WithRand for repeatable results.
//
// Iterate and Solve apply the PageRank equation synchronously until no page
// moves by more than the threshold:
//
//	rank(p) = (1-d)/N + d * sum(rank(q)/out(q)) over pages q linking to p
//
// Dangling pages link to nothing and so feed no page in this equation,
// unlike Transition which spreads them uniformly. The two methods therefore
// disagree on graphs with dangling pages. Iterate rescales its fixed point
// to sum to one and keeps the unscaled values in Result.Raw.
//
// All functions are pure and safe for concurrent use on a shared graph.
package rank
