package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

// loadModule builds the samples module and, when --image is set, loads the
// method image into it. The loaded method replaces any sample of the same
// name.
func loadModule() (*bytecode.Module, error) {
	log := logger()
	module, err := newSampleModule(log)
	if err != nil {
		return nil, err
	}
	path := viper.GetString("image")
	if path == "" {
		return module, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	header, err := bytecode.ReadImageHeader(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if header.MVID != module.MVID() {
		log.Debug().
			Str("file", path).
			Stringer("image_mvid", header.MVID).
			Stringer("module_mvid", module.MVID()).
			Msg("method image was written by another module instance")
	}
	m, err := bytecode.Unmarshal(data, module)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	log.Info().
		Str("file", path).
		Str("method", m.FullName()).
		Stringer("mvid", header.MVID).
		Msg("loaded method image")
	return module, nil
}

func lookupMethod(name string) (*bytecode.Method, error) {
	module, err := loadModule()
	if err != nil {
		return nil, err
	}
	return module.Method(name)
}
