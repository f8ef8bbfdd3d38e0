package insights

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// benchmarkFile is the on-disk shape of the industry benchmark table.
type benchmarkFile struct {
	Benchmarks []struct {
		Metric  string  `yaml:"metric"`
		Average float64 `yaml:"average"`
	} `yaml:"benchmarks"`
}

// LoadBenchmarks reads an optional {metric, average} table from a YAML file.
// An empty path returns an empty table; rules treat missing benchmarks as
// "no opinion" so the rest of the engine keeps running.
func LoadBenchmarks(path string) (map[string]float64, error) {
	if path == "" {
		return map[string]float64{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("insights: read benchmarks: %w", err)
	}
	var file benchmarkFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("insights: parse benchmarks: %w", err)
	}
	table := make(map[string]float64, len(file.Benchmarks))
	for _, entry := range file.Benchmarks {
		if entry.Metric == "" {
			continue
		}
		table[entry.Metric] = entry.Average
	}
	return table, nil
}
