// Package core provides the business logic of the catalog service.
//
// It is independent of any transport: web handlers, CLI tools and tests use
// the same [Service].
//
// # Catalog Snapshot
//
// [Service] keeps the whole catalog in memory as a newest-first slice. The
// first read loads it from the [store.Repository]; every successful write
// patches it, so storefront queries never touch the database once warm.
// [Service.Refresh] reloads it on demand.
//
// # Bulk Import
//
// Imports are two-step. [Service.PreviewImport] parses a CSV, TSV or XLSX
// upload, normalizes every row and parks the accepted drafts in a session:
//
//  1. The admin uploads a file and gets an [ImportPreview] with the
//     accepted drafts and one [importer.Rejection] per bad row.
//  2. [Service.CommitImport] stores the accepted drafts in one batch, or
//     [Service.DiscardImport] drops them.
//
// Sessions expire after the configured TTL. The [ImportLimiter] bounds how
// many files are parsed at once.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PRD001-PRD002: Product errors (not found, bad size index)
//   - VAL001-VAL002: Validation errors (fields, malformed body)
//   - FILE001-FILE007: File errors (size, format, empty, workbook)
//   - IMP001-IMP003: Import session errors (busy, expired, nothing to import)
//   - DB001-DB007: Database errors (duplicates, connections, timeouts)
package core
