//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Templates extracts the contract, deploy, and test templates from the
// generator source into internal/generator/templates.
func Templates() error {
	mg.Deps(Build)
	return sh.RunV("bin/tmplextract", "--create-dirs")
}

// CheckTemplates fails when the extracted templates are out of date with
// the generator source.
func CheckTemplates() error {
	mg.Deps(Build)
	return sh.RunV("bin/tmplextract", "--check")
}
