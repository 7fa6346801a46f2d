/*
Package concierge is a guided form-filling engine for conversational assistants.

A user talks to the assistant in free text. When an utterance names a known
service ("quero pedir abono de família"), the engine opens the matching form
and asks for one field per turn, extracting typed values (text, number, date,
select, boolean) from the answers. When every required field is filled it
synthesizes a document, appends it to the user's library and closes the
session. Anything said outside a form goes to a pluggable Responder, usually
an LLM, together with the documents the user already holds and the services
still pending.

# Architecture

The engine follows a hexagonal layout. The dialogue machine in pkg/dialogue
owns the rules; sessions, documents, locks and the responder are ports with
adapters for memory, files, Redis, SQLite and OpenAI compatible models.

# Usage

	eng, err := concierge.New(
		concierge.WithPendingItems("Renovação do Cartão de Cidadão"),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.Process(ctx, "conversation-1", "quero pedir abono de família")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text)

Without WithCatalog or WithFormsDir the engine serves the builtin forms.
Forms can also live as Markdown or YAML files in a directory loaded with Loam:

	eng, err := concierge.New(concierge.WithFormsDir("./forms"))

# Ports

  - ports.SessionStore: where open sessions live between turns.
  - ports.DocumentStore: the append-only document library.
  - ports.Responder: free text answers outside a form.
  - ports.DistributedLocker: turn serialisation across processes.
*/
package concierge
