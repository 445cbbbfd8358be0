package config

import (
	"errors"
	"strings"
)

var errEmptyInput = errors.New("empty input name, use '-' for the standard input")

// inputFlag collects the input files in the order of the -input flags. In
// the YAML configuration, it accepts a single file or a list of files.
type inputFlag []string

func (f *inputFlag) String() string {
	if f == nil {
		return ""
	}

	return strings.Join(*f, ",")
}

func (f *inputFlag) Set(value string) error {
	if value == "" {
		return errEmptyInput
	}

	*f = append(*f, value)
	return nil
}

func (f *inputFlag) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err != nil {
		var single string
		if err := unmarshal(&single); err != nil {
			return err
		}

		list = []string{single}
	}

	for _, v := range list {
		if v == "" {
			return errEmptyInput
		}
	}

	*f = list
	return nil
}
