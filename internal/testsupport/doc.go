// Package testsupport provides shared helpers for package tests: temp-dir
// configs with short scheduler intervals, opened queue stores, and scripted
// stub executors.
package testsupport
