// Package ldbstore keeps the per-trial results of bandit experiments in a
// LevelDB database, so results from several runs can be inspected from disk
// rather than held in memory.
//
// Each repetition is stored under two keys, one for cumulative regret and
// one for the optimal action indicator, tagged with the id of the run
// that produced it.
package ldbstore
