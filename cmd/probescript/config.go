// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"

	"github.com/probechain/probescript/lang/vm"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func defaultVMConfig() vm.Config {
	return vm.DefaultConfig
}

// loadConfig reads a TOML file into cfg. Writer settings are not
// configurable from a file; only the tuning knobs are.
func loadConfig(file string, cfg *vm.Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	var fileCfg struct {
		VM struct {
			TraceExecution bool
			StressGC       bool
			LogGC          bool
			GCGrowthFactor int
		}
	}
	fileCfg.VM.GCGrowthFactor = cfg.GCGrowthFactor

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&fileCfg)
	if err != nil {
		// Add the file name to errors that have a line number.
		if _, ok := err.(*toml.LineError); ok {
			err = errors.New(file + ", " + err.Error())
		}
		return err
	}

	cfg.TraceExecution = fileCfg.VM.TraceExecution
	cfg.StressGC = fileCfg.VM.StressGC
	cfg.LogGC = fileCfg.VM.LogGC
	cfg.GCGrowthFactor = fileCfg.VM.GCGrowthFactor
	return nil
}
