// Package dispatch runs host commands off the UI goroutine.
//
// A [Queue] is a FIFO of tasks. Producers call [Queue.Enqueue] from any
// goroutine; the owner of the host connection either drains the queue
// between events ([Queue.Drain]) or dedicates a goroutine to it
// ([Queue.Run]). Tasks execute one at a time, in submission order.
package dispatch
