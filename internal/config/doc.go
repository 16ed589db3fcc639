// Package config defines the format-agnostic configuration model of the
// server: its own settings, the object name table, the declarative hardware
// interfaces and the screens.
//
// Concrete loaders, such as the HCL one, live in separate packages and
// implement Loader.
package config
