// Package preflight provides readiness checks for the vendor APIs and
// filesystem paths that dealflow depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs failures as warnings, so a
//     bad key shows up before the first scheduled scan.
//   - The CLI "dealflow doctor" command renders every result as a table.
//
// Each vendor check is skipped with a "not configured" result when its
// credentials are absent.
package preflight
