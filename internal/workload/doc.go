// Package workload defines the synthetic tasks the load generator schedules.
//
// None of them does useful work. Factorial and Fibonacci burn CPU, Retrieve
// stands in for a network fetch with a sleep, and NestedFibonacci is the one
// task that crosses pools: it fans a factorial batch out to a secondary pool
// and waits for all of it before computing its own result.
package workload
