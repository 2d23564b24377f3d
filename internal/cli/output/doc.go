// Package output renders CLI results as a table, JSON or YAML.
package output
