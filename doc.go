// Package jdoc is the composition root for immutable JSON documents and the
// repositories that store them.
//
// A Document is an immutable, validated map of fields with a canonical JSON
// form. Two documents are equal when their canonical forms are equal, and the
// hash is derived from the same bytes. Fields whose names start with "_" are
// internal: repositories persist them, but they are left out of the external
// encoding and so of equality.
//
// Features:
//
//   - **Canonical Identity**: Equality, ordering and hashing follow the canonical JSON form.
//   - **Typed Accessors**: Soft-miss coercion into Go types with `core.Get[T]`.
//   - **Schemas**: Hierarchical validation and defaulting hooks.
//   - **Families**: Discriminated subtypes routed by a tag field (`pkg/family`).
//   - **Intervals**: Half-open interval maps and multimaps (`pkg/interval`).
//   - **Adapters**: Filesystem (JSON or YAML), SQLite and in-memory repositories.
//
// Usage:
//
//	doc, err := jdoc.New(jdoc.Fields{"name": "Ada", "_rev": 1})
//
//	repo, err := jdoc.Open(ctx, "./data", jdoc.WithFormat("yaml"))
//	err = repo.Save(ctx, "people/ada", doc)
package jdoc
