// Package flagx lets several components parse their own subset of the
// command line with the standard flag package.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// flagName strips the leading dashes; the flag package treats -x and --x alike.
func flagName(arg string) string {
	return strings.TrimLeft(arg, "-")
}

// FilterArgs keeps only the allowed flags (and their values) from args, in
// order. Both "-c conf.json" and "--config=conf.json" forms are recognized,
// and an allowed flag matches with one or two leading dashes.
//
// A separate value is taken only when the next argument does not start
// with a dash.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[flagName(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := allowed[flagName(name)]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the value of -c or -config in args, or "" if neither
// is present. When both appear, the last one wins.
func ConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

// JsonConfigFlags is ConfigPath over the process arguments.
func JsonConfigFlags() string {
	return ConfigPath(os.Args[1:])
}
