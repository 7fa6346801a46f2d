/*
Package domain contains the core models of the form-filling engine.

It defines the static form definitions, the per-conversation dialogue session and the
document produced when a session completes. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - FormDefinition: An immutable template of typed fields plus the phrases that start it.
  - DialogueSession: The in-flight state of one conversation filling one form.
  - Document: The persisted artifact created when every required field is collected.
  - Reply: What the engine returns for a single user turn.
*/
package domain
