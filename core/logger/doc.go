// Package logger is a standardized event logging framework for the evaluator.
//
// Events are written as newline delimited JSON so they can be tailed while a
// shell runs and summarized afterwards with Report.
package logger
