/*
Package cadence is a reactive expression engine for musical parameters. It
keeps a tree of entities (notes, measures, sections) whose variables are
either literal values, strings, or arithmetic expressions over other
entities' variables, and it keeps every derived value consistent as the
tree is edited.

# Concept

A module always contains a root entity (id 0) carrying global defaults:
start time, tempo, measure length, and a reference frequency. Every other
entity can express its variables relative to others, for example a note
whose start time is "where the previous note ends":

	startTime: e1.startTime + e1.duration

The engine compiles these expressions, tracks the dependency graph they
induce, rejects edits that would close a reference cycle, and invalidates
cached values eagerly so reads are never stale. Arithmetic is exact
rational arithmetic, so tempo ratios like 3/2 never accumulate floating
point drift.

# Key Features

  - Reactive evaluation: editing one variable transparently updates every
    dependent value.
  - Cycle safety: an edit that would make the graph cyclic is rejected
    atomically, with a witness path.
  - Structural rewrites: entities can be removed with or without their
    dependents, rebased so their expressions read only from the root, or
    liberated from the dependency graph entirely, all value-preserving.
  - YAML documents: a module round-trips through a plain document format
    keeping expression source text intact.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/cadence"
	)

	func main() {
		eng := cadence.New()

		// A note one beat long, a fifth above the root frequency.
		note, err := eng.AddEntity(-1, map[string]string{
			"startTime": "e0.startTime",
			"duration":  "60 / tempo(e0)",
			"frequency": "e0.frequency * rat(3, 2)",
		})
		if err != nil {
			log.Fatal(err)
		}

		value, err := eng.GetVariable(note, "frequency")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(value.Number) // 660

		// Double the tempo; the note's duration follows.
		if err := eng.SetVariable(0, "tempo", "120"); err != nil {
			log.Fatal(err)
		}
	}
*/
package cadence
