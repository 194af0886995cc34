// Package prompt abstracts interactive terminal questions so flows such as
// draft recovery can run against a real terminal or a scripted driver in
// tests.
package prompt
