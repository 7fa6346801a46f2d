/*
Package session serializes access to per-conversation dialogue sessions.

Turns of the same conversation run one at a time: the Manager keeps a
reference-counted mutex per conversation and, when configured, also holds a
distributed lock so replicas sharing a store do not interleave turns.
*/
package session
