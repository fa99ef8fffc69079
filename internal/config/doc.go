// Package config defines the packaging settings used by dfu-packager and
// provides helpers to load and validate them from YAML.
//
// The defaults reproduce the fixed build/dfu layout, so the settings file is
// optional.
package config
