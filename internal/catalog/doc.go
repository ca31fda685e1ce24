// Package catalog stores validated artifacts for the publishing side.
package catalog
