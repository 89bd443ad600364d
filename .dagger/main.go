// fiekchat CI
//
// Package main runs the fiekchat builds and tests in containers, locally and
// in GitHub actions.
package main

import (
	"context"

	"dagger/fiekchat/internal/dagger"
)

// Fiekchat is the CI module for the fiekchat client
type Fiekchat struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Fiekchat CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp"]
	source *dagger.Directory,
) *Fiekchat {
	return &Fiekchat{
		Source: source,
	}
}

// goContainer returns a Go container with the module caches and the project
// source mounted. Every dependency is pure Go, so CGO stays off.
func (f *Fiekchat) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", f.Source)
}

// Test runs the ginkgo suites with the race detector
func (f *Fiekchat) Test(ctx context.Context) (string, error) {
	return f.goContainer().
		// The race detector needs cgo.
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
