// Package workload drives hint generation over a CSV workload.
//
// A workload is a CSV file with a header row and one query per row in a
// configurable column. Run parses, selects and serializes every query on
// a bounded worker pool and returns one Outcome per row in input order.
// A failing row never stops the batch unless OnErrorAbort is set; how
// failed rows appear in the output is decided by the OnError policy.
package workload
