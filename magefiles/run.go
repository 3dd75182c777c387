//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed with config.toml.
func (Run) Engine() error {
	mg.Deps(Build.Vet)
	fmt.Println("Run engine...")
	return goCmd("run", ".", "-config", "config.toml")
}
