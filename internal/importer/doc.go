// Package importer loads vocabulary lists from xlsx workbooks or CSV files
// and introduces them as new item records.
//
// Each data row holds a term, a meaning and an optional difficulty rank, in
// that column order. Rows without a difficulty take their position in the
// file, so lists are introduced in the order they were written.
package importer
