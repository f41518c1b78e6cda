// Package compiler compiles CUE sources with processors.
//
// A compilation parses every input, then runs the configured processors in
// rounds. Each round hands the processors the files that are new in that
// round together with the evaluated instance; files a processor creates
// are parsed and compiled in the next round. Processing stops when a round
// creates nothing. The final instance is then validated and every problem
// found along the way becomes an ir.Diagnostic on the returned
// ir.Compilation.
//
// Options follow the javac style:
//
//	-A<key>[=<value>]  processor option, see Round.Option
//	-Werror            fail the compilation when warnings were reported
//	-concrete          require every value to be concrete
//	-proc:none         do not run processors
package compiler
