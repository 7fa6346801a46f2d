/*
Package extract pulls a typed value for one field out of a free-text utterance.

Each field type has its own Extractor. Extraction is deterministic and favours
precision: when nothing clearly matches, no value is returned and the caller asks
again. Extractors never panic on arbitrary input.
*/
package extract
