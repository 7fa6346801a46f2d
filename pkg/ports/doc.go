/*
Package ports defines the driven ports (interfaces) of the form-filling engine.

These interfaces decouple the dialogue logic from external implementations, allowing
the engine to work with various storage backends and free-text responders.

# Key Interfaces

  - SessionStore: Persists the in-flight DialogueSession of each conversation.
  - DocumentStore: Append-only library of completed documents, deduplicated by session.
  - Responder: The opaque free-text assistant used outside the form flow.
  - DistributedLocker: Serializes turns of one conversation across replicas.
*/
package ports
