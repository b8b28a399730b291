// Polyglot CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/polyglot/internal/dagger"
)

// Polyglot is the main module for the Polyglot CI/CD pipeline
type Polyglot struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Polyglot CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp"]
	source *dagger.Directory,
) *Polyglot {
	return &Polyglot{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with the project
// source mounted and module/build caches attached.
//
// It is the shared foundation for tests, builds, and linting.
func (p *Polyglot) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", p.Source)
}

// Test runs the polyglot unit tests via "go test"
func (p *Polyglot) Test(ctx context.Context) (string, error) {
	return p.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
