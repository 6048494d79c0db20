package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/tallridge/backroom/internal/record"
)

// LoadDir compiles every kind declared by the CUE files in a directory.
//
// The directory is loaded as one CUE instance, so declarations may be
// split across files and share definitions. Loading merges the result
// over the builtin kinds: a deployment file may add new kinds or refine
// a builtin one, the builtin declarations it does not touch stay
// available.
func LoadDir(dir string) (map[string]record.Schema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	loaded, err := CompileAll(value)
	if err != nil {
		return nil, err
	}

	merged, err := Builtin()
	if err != nil {
		return nil, err
	}
	out := make(map[string]record.Schema, len(merged)+len(loaded))
	for name, s := range merged {
		out[name] = s
	}
	for name, s := range loaded {
		out[name] = s
	}
	return out, nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
