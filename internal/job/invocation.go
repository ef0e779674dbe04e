package job

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saalfeldlab/n5-spark-launcher/internal/cluster"
	"github.com/saalfeldlab/n5-spark-launcher/internal/layout"
)

// Invocation is a fully built call of the flintstone wrapper.
type Invocation struct {
	Job   string   `json:"job" yaml:"job"`
	Nodes int      `json:"nodes" yaml:"nodes"`
	Path  string   `json:"path" yaml:"path"`
	Args  []string `json:"args" yaml:"args"`
	Env   []string `json:"env" yaml:"env"`
}

// Argv returns the wrapper path followed by its arguments.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Path}, inv.Args...)
}

// String renders the call as a shell-like line for logs.
func (inv *Invocation) String() string {
	return strings.Join(append(append([]string{}, inv.Env...), inv.Argv()...), " ")
}

// ParseNodeCount reads the node count from the first argument and returns the
// remaining arguments untouched. Surrounding whitespace and a leading sign are
// accepted, so " 4", "+4" and "4" all yield 4. Digit separators ("1_0") and
// values beyond the int range are rejected.
func ParseNodeCount(args []string) (int, []string, error) {
	if len(args) == 0 {
		return 0, nil, ErrMissingNodeCount
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidNodeCount, args[0])
	}
	return n, args[1:], nil
}

// Build assembles the wrapper call:
//
//	<wrapper> <nodes> <archive> <class> <extra...>
//
// extra is copied, never reordered or rewritten.
func Build(j Job, l layout.Layout, s cluster.Settings, nodes int, extra []string) *Invocation {
	args := make([]string, 0, 3+len(extra))
	args = append(args, strconv.Itoa(nodes), l.ArchivePath, j.Class)
	args = append(args, extra...)

	return &Invocation{
		Job:   j.Name,
		Nodes: nodes,
		Path:  l.WrapperPath,
		Args:  args,
		Env:   s.Env(),
	}
}

// Plan parses args and builds the invocation in one step.
func Plan(j Job, l layout.Layout, s cluster.Settings, args []string) (*Invocation, error) {
	nodes, extra, err := ParseNodeCount(args)
	if err != nil {
		return nil, err
	}
	return Build(j, l, s, nodes, extra), nil
}
