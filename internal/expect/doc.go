// Package expect asserts on compilation results.
//
// A chain starts with That and reports failures through a FailureStrategy
// chosen by the caller:
//
//	expect.That(comp, expect.Fatal(t)).
//		Failed().
//		HadErrorContaining("expected '}'").In("Broken").OnLine(2).AtColumn(1)
//
// The first failing link reports once and every later link of the chain is
// inert. Refinements such as In or OnLine narrow the diagnostics in scope;
// they never widen it. Errors returned by the compiler itself, including
// those of processors, never pass through this package.
package expect
