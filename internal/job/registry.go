package job

import (
	"fmt"
	"sort"
)

// Job is a Spark entry point packaged in the n5-spark archive.
type Job struct {
	Name        string `json:"name" yaml:"name"`
	Class       string `json:"class" yaml:"class"`
	Description string `json:"description" yaml:"description"`
	Usage       string `json:"usage" yaml:"usage"`
}

// MIPS is the maximum-intensity-projection job run by n5-mips.
var MIPS = Job{
	Name:        "mips",
	Class:       "org.janelia.saalfeldlab.n5.spark.N5MaxIntensityProjection",
	Description: "Maximum intensity projections of an N5 dataset",
	Usage:       "<job arguments>",
}

var registry = map[string]Job{
	MIPS.Name: MIPS,
	"convert": {
		Name:        "convert",
		Class:       "org.janelia.saalfeldlab.n5.spark.N5ConvertSpark",
		Description: "Convert an N5 dataset to another block size, data type or compression",
		Usage:       "<job arguments>",
	},
	"scale-pyramid-nonisotropic": {
		Name:        "scale-pyramid-nonisotropic",
		Class:       "org.janelia.saalfeldlab.n5.spark.downsample.scalepyramid.N5NonIsotropicScalePyramidSpark3D",
		Description: "Non-isotropic 3D scale pyramid, downsampled to be as close to isotropic as possible",
		Usage:       "-n <n5Path> -i <inputDatasetPath> -r <pixelResolution> [-o <outputGroupPath>] [-p]",
	},
}

// Lookup returns the registered job with the given name.
func Lookup(name string) (Job, error) {
	j, ok := registry[name]
	if !ok {
		return Job{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return j, nil
}

// All returns every registered job sorted by name.
func All() []Job {
	jobs := make([]Job, 0, len(registry))
	for _, j := range registry {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Name < jobs[k].Name })
	return jobs
}
