//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles every package and the testbed binary.
func (Build) All() error {
	if err := goCmd("build", "./..."); err != nil {
		return err
	}
	return goCmd("build", "-o", "bin/cinder", ".")
}

// Runs go vet on every package.
func (Build) Vet() error {
	return goCmd("vet", "./...")
}

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) Unit() error {
	return goCmd("test", "-race", "-count=1", "./...")
}

// Runs the radix sort benchmarks.
func (Test) Bench() error {
	return goCmd("-C", "engine/renderer/radix", "test", "-run", "^$", "-bench", ".")
}
