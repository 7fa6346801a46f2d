// Package redis provides a Redis-backed session store and distributed locker for
// running several engine replicas against shared conversation state.
package redis
