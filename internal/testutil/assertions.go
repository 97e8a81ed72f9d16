package testutil

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/builder"
	"github.com/vk/evalgraph/internal/depsnode"
)

// RequireBuilt fails the test unless the run succeeded, and returns its
// build report.
func RequireBuilt(t *testing.T, result *HarnessResult) *builder.Result {
	t.Helper()
	require.NoError(t, result.Err, "run failed; logs:\n%s", result.LogOutput)
	res := result.App.Result()
	require.NotNil(t, res)
	return res
}

// RootMap returns the chain root map built for the armature object with the
// given name.
func RootMap(t *testing.T, res *builder.Result, object string) *builder.RootChainMap {
	t.Helper()
	for ob, m := range res.RootMaps {
		if ob.Name == object {
			return m
		}
	}
	require.Failf(t, "no root map", "object %s has no root map", object)
	return nil
}

// Relations returns the sorted descriptions of all relations of the built
// graph whose description starts with prefix.
func Relations(result *HarnessResult, prefix string) []string {
	var out []string
	for _, rel := range result.App.Graph().Relations() {
		if strings.HasPrefix(rel.Description, prefix) {
			out = append(out, rel.Description)
		}
	}
	sort.Strings(out)
	return out
}

// CyclicDescriptions returns the sorted descriptions of the relations the
// cycle solver marked.
func CyclicDescriptions(res *builder.Result) []string {
	out := make([]string, 0, len(res.Cyclic))
	for _, rel := range res.Cyclic {
		if rel.Flags.Has(depsnode.RelCyclic) {
			out = append(out, rel.Description)
		}
	}
	sort.Strings(out)
	return out
}
