package proppath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		raw          string
		expectErr    bool
		expectedPath *Path
	}{
		{
			name: "single property",
			raw:  "location",
			expectedPath: &Path{
				Segments: []Segment{NewSegment("location")},
			},
		},
		{
			name: "keyed collection with dotted key",
			raw:  `pose.bones["Arm.L"].rotation_quaternion[2]`,
			expectedPath: &Path{
				Segments: []Segment{
					NewSegment("pose"),
					NewKeyedSegment("bones", "Arm.L"),
					NewIndexedSegment("rotation_quaternion", 2),
				},
			},
		},
		{
			name: "custom property on struct",
			raw:  `pose.bones["Hand"]["stretch"]`,
			expectedPath: &Path{
				Segments: []Segment{
					NewSegment("pose"),
					NewKeyedSegment("bones", "Hand"),
					NewKeyedSegment("", "stretch"),
				},
			},
		},
		{
			name: "bare custom property",
			raw:  `["mood"]`,
			expectedPath: &Path{
				Segments: []Segment{NewKeyedSegment("", "mood")},
			},
		},
		{
			name: "escaped quote in key",
			raw:  `constraints["say \"hi\""].influence`,
			expectedPath: &Path{
				Segments: []Segment{NewKeyedSegment("constraints", `say "hi"`), NewSegment("influence")},
			},
		},
		{name: "error - empty string", raw: "", expectErr: true},
		{name: "error - empty segment", raw: "a..b", expectErr: true},
		{name: "error - unterminated key", raw: `bones["a`, expectErr: true},
		{name: "error - unterminated index", raw: "splines[1", expectErr: true},
		{name: "error - non numeric index", raw: "splines[x]", expectErr: true},
		{name: "error - identifier starts with digit", raw: "1abc", expectErr: true},
		{name: "error - bare index", raw: "[3]", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSyntax)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPath, p)
		})
	}
}

func TestPath_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"location",
		`pose.bones["Arm.L"].constraints["IK"].chain_count`,
		`modifiers["Subsurf"].levels`,
		`["mood"]`,
		`data.splines[3].tilt`,
	} {
		p, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, p.String())
	}
}
