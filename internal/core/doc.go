// Package core joins the combined cutoffs table with the college
// information table.
//
// # Pipeline
//
// A run has two stages, in order:
//
//  1. [LoadReference] reads college_information.csv into a [ReferenceStore],
//     keyed by college_id as written. Later rows overwrite earlier ones.
//  2. [EnrichFile] reads combined_cutoffs.csv, normalizes each row's
//     college_code with [NormalizeCollegeCode] ("007" -> "7"), looks the
//     result up, and writes the row with status and home_university
//     appended. Unmatched ids get "Unknown" for both and a warning.
//
// [Service.Run] ties the stages together and optionally hands the output to
// a [Publisher].
//
// # Invariants
//
//   - Output data rows == input data rows.
//   - Original fields are written unchanged, in order, before the two
//     appended fields.
//   - Identical inputs produce byte-identical output.
//   - A failed enrichment leaves no output file behind.
//
// # Error Handling
//
// Fatal failures wrap one of [ErrMissingFile], [ErrMalformedHeader],
// [ErrMalformedRow], or [ErrInvalidCode]. [MapError] turns them into a
// short code for operators. Whether an invalid college code is fatal is
// decided by [InvalidCodePolicy].
package core
