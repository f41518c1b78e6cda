// Package harness runs compile-testing scenarios described in YAML.
//
// # Scenario Format
//
//	name: generate_person
//	description: "@generate emits #Person"
//	sources:
//	  - name: person
//	    content: |
//	      person: {name: string} @generate(Person)
//	  - name: shared
//	    path: testdata/shared.cue
//	processors: [generate]
//	options: ["-Awarn.level=strict"]
//	expect:
//	  status: succeeded
//	  warnings: 0
//	  diagnostics:
//	    - kind: warning
//	      contains: deprecated
//	      file: person
//	      line: 3
//	  generated:
//	    - name: Person
//	      content: "#Person: {name: string}"
//
// Paths are relative to the scenario file. Unknown keys are rejected so
// typos fail loudly.
//
// # Expectations
//
// Every expectation is checked independently through an expect.Collector,
// so one run reports every unmet expectation rather than only the first.
// Errors from the compiler itself, including processor failures, are
// returned from Run unchanged.
//
// # Deterministic Output
//
// Compilations use a fixed ID (testutil.FixedIDGenerator) and snapshots
// are canonical JSON, so golden files are byte-identical across runs.
package harness
