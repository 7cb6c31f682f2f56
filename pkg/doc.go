// Package pkg holds the building blocks of document conversion, with no dependency on plugins or the runtime.
//   - The entries package holds the JSON keys of a record that have no typed field.
//   - The ecs package is the document model, and its JSON codec.
//   - The grammar packages parse the free text lines of applications.
//   - The kubernetes package maps collector metadata onto the document.
//   - The iterator package streams records between sources, the converter, and sinks.
package pkg
