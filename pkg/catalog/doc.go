/*
Package catalog is the static registry of form definitions.

Forms come from one of three sources, all validated the same way:

  - Builtin: the embedded Segurança Social forms.
  - LoadRepository: a Loam directory with one document per form, metadata in front matter.
  - Builder: a fluent Go API, mostly for tests and embedding hosts.

A Catalog is read-only once built and safe for concurrent use.
*/
package catalog
