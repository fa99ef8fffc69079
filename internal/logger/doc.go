// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a plain console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities used by --verbose,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every packaging stage accepts a context and extracts the logger from it,
// so output is scoped to the command and the input being packaged.
package logger
