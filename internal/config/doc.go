// Package config defines the format-agnostic model that scene loaders
// produce, along with the Loader interface they implement.
//
// The `config.Model` is the single source of truth for the `app` package: it
// owns the scene database the dependency graph is built from. Concrete
// loaders, such as the HCL one, live in separate packages.
package config
