// Package utils provides common utility functions for the snapshot catalog.
// It includes helper functions for loose type conversion and other shared
// logic that doesn't fit into domain-specific packages.
package utils
