// Package cluster holds the allocation settings handed to the flintstone
// wrapper. They reach the wrapper as environment variables of the child
// process only; the launcher's own environment is left alone.
package cluster

import (
	"fmt"
	"sort"
	"strconv"
)

// Environment keys read by flintstone.sh
const (
	EnvSparkVersion  = "SPARK_VERSION"
	EnvDriverThreads = "N_DRIVER_THREADS"
	EnvMemoryPerNode = "MEMORY_PER_NODE"
	EnvTerminate     = "TERMINATE"
)

// Settings describes the cluster allocation for one job.
type Settings struct {
	SparkVersion    int  `json:"spark_version" yaml:"spark_version" mapstructure:"spark_version"`
	DriverThreads   int  `json:"driver_threads" yaml:"driver_threads" mapstructure:"driver_threads"`
	MemoryPerNodeGB int  `json:"memory_per_node" yaml:"memory_per_node" mapstructure:"memory_per_node"`
	Terminate       bool `json:"terminate" yaml:"terminate" mapstructure:"terminate"`
}

// Default returns the allocation every launcher script in the install ships with.
func Default() Settings {
	return Settings{
		SparkVersion:    2,
		DriverThreads:   2,
		MemoryPerNodeGB: 115,
		Terminate:       true,
	}
}

// Validate rejects settings flintstone cannot act on.
func (s Settings) Validate() error {
	if s.SparkVersion <= 0 {
		return fmt.Errorf("invalid spark version %d", s.SparkVersion)
	}
	if s.DriverThreads <= 0 {
		return fmt.Errorf("invalid driver thread count %d", s.DriverThreads)
	}
	if s.MemoryPerNodeGB <= 0 {
		return fmt.Errorf("invalid memory per node %dGB", s.MemoryPerNodeGB)
	}
	return nil
}

// Map returns the settings keyed by environment variable name.
func (s Settings) Map() map[string]string {
	terminate := "0"
	if s.Terminate {
		terminate = "1"
	}
	return map[string]string{
		EnvSparkVersion:  strconv.Itoa(s.SparkVersion),
		EnvDriverThreads: strconv.Itoa(s.DriverThreads),
		EnvMemoryPerNode: strconv.Itoa(s.MemoryPerNodeGB),
		EnvTerminate:     terminate,
	}
}

// Env renders the settings as sorted KEY=VALUE pairs.
func (s Settings) Env() []string {
	m := s.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+m[k])
	}
	return env
}
