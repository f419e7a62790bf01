// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Log struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

type Global struct {
	Log   Log  `yaml:"log"`
	Debug bool `yaml:"debug"`
}

type Config struct {
	Global Global `yaml:"global"`
}

func ReadConfigFile(configFile string) (Config, error) {
	c := new(Config)

	f, err := os.Open(configFile)
	if err != nil {
		return *c, err
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(&c)
	return *c, err
}
