/*
 * settings.go, part of evscan.
 *
 * Copyright 2024 The evscan Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables that override the settings,
// for instance EVSCAN_LOG_LEVEL.
const EnvPrefix = "EVSCAN"

// Settings are the runtime settings of evscan, which do not depend on the job.
type Settings struct {
	LogLevel   string //debug, info, warn or error
	LogFormat  string //text or json
	OutputDir  string //if not empty, overrides the output directory of jobs
	XTBCommand string //xtb executable used when a job doesn't give one
}

func defaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", "")
	v.SetDefault("xtb_command", "")
}

// LoadSettings reads the settings from file (yaml, toml or json) if it is not empty,
// and from the EVSCAN_ environment variables, which take precedence.
func LoadSettings(file string) (*Settings, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", file, err)
		}
	}
	S := &Settings{
		LogLevel:   strings.ToLower(v.GetString("log_level")),
		LogFormat:  strings.ToLower(v.GetString("log_format")),
		OutputDir:  v.GetString("output_dir"),
		XTBCommand: v.GetString("xtb_command"),
	}
	if err := S.Validate(); err != nil {
		return nil, err
	}
	return S, nil
}

// Validate checks the log settings.
func (S *Settings) Validate() error {
	switch S.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", S.LogLevel)
	}
	switch S.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", S.LogFormat)
	}
	return nil
}
