// Package plan computes where a recovered file is placed.
package plan
