// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the operator-facing configuration for nacctl, loaded from
// config.yaml in the working directory.
type Config struct {
	// DataDir is the badger database directory shared with the
	// platform service. The service must be stopped before nacctl
	// opens it directly.
	DataDir string `yaml:"data_dir"`

	// LogDir enables file logging when set.
	LogDir string `yaml:"log_dir"`

	Sweep struct {
		// ReminderWindowHours is how far ahead of a confirmed call the
		// reminder email goes out. Default 24.
		ReminderWindowHours int `yaml:"reminder_window_hours"`

		// RequestTTLHours is how long an unconfirmed call request
		// lives before expiry. Default 72.
		RequestTTLHours int `yaml:"request_ttl_hours"`
	} `yaml:"sweep"`
}

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configPath := "config.yaml"
		yamlFile, err := os.ReadFile(configPath)
		if err != nil {
			// No config file is fine; defaults apply.
			config = Config{DataDir: "./data/badger"}
			return
		}

		if err := yaml.Unmarshal(yamlFile, &config); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
		if config.DataDir == "" {
			config.DataDir = "./data/badger"
		}
	}
}
