// Package importer reads bulk product uploads.
//
// An upload goes through two independent steps:
//
//   - ParseFile turns a CSV, TSV or XLSX file into Rows. A file that cannot
//     be read at all fails as a whole with a *ParseError.
//   - Normalizer.Normalize maps Rows to catalog drafts. Column names are
//     not standardized, so each product field is looked up through an
//     ordered alias list. Rows that fail validation are returned as
//     Rejections next to the accepted drafts and never stop the batch.
//
// WriteTemplate produces the example file offered to administrators.
package importer
