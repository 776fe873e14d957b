// Package harness runs fixture suites against the migrator.
//
// A suite is a YAML file of cases. Each case gives an input (an old-form
// tree, or a single old-form predicate) and either the expected new-form
// output or the expected error code:
//
//	name: ranking trees
//	description: splits used by the ranking model
//	cases:
//	  - name: lt against not lt
//	    input: '[{"feature":"x","predicate":{"lt":3},"children":"A"},
//	             {"feature":"x","predicate":{"not":{"lt":3}},"children":"B"}]'
//	    expect:
//	      output: '{"key":"x","predicate":{"lt":3},"left":"A","right":"B"}'
//	  - name: exists is rejected
//	    kind: predicate
//	    input: {exists: true}
//	    expect:
//	      error: UNSUPPORTED_PREDICATE
//
// Inputs and outputs may be written as JSON text in a YAML string or as
// plain YAML; string scalars are always read as JSON text. Outputs are
// compared by value, so member order and number spelling do not matter.
package harness
