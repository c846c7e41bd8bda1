// Package harness runs conformance scenarios against the hint generator.
//
// A scenario fixes a key-role source, a selection policy and a renderer,
// then lists queries together with the decision expected for each of them.
// Besides the per-case expectations, every case is checked against the
// properties the selector guarantees for any input (idempotence, scope
// monotonicity, role exclusivity and empty-safety).
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: job_fk_first
//	description: "Default policy on JOB-style UES queries"
//	catalog: ../catalogs/imdb.yaml   # optional, relative to the scenario file
//	policy:
//	  idx_target: fk
//	  nlj_scope: first
//	renderer: pg_hint_plan
//	cases:
//	  - name: 1a
//	    query: |
//	      SELECT ... FROM title t JOIN (SELECT ...) AS sq ON ...
//	    expect:
//	      status: hinted
//	      directives:
//	        - index_scan: mc
//	          probe: ct
//	      hint: "/*+\nNestLoop(ct mc)\nIndexScan(mc)\n*/"
//
// Without a catalog, key roles come from the naming convention ("id" is the
// primary key, "*_id" columns are foreign keys).
//
// # Properties
//
// The properties list restricts which invariants are checked. An empty
// list checks all of them:
//
//   - idempotent: selecting twice yields the same directive fingerprint
//   - scope_monotonic: every "first" directive is also an "all" directive
//   - role_exclusive: the index-scanned side plays the targeted role, the
//     probe side does not
//   - empty_safe: a query without directives serializes to "" when
//     strip_empty is set and to the bare marker otherwise
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/job.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
