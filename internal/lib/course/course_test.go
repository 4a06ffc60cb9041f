package course

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpace/runguide/internal/lib/guidance"
)

const riversideLoop = `{
	"id": "han-river-loop",
	"name": "Han River Loop",
	"waypoints": [
		{"lat": 37.5124, "lng": 126.9956, "order": 0},
		{"lat": 37.5140, "lng": 127.0100, "order": 1},
		{"lat": 37.5171, "lng": 127.0823, "order": 2}
	],
	"path_coordinates": [
		[126.9956, 37.5124],
		[127.0100, 37.5140],
		[127.0823, 37.5171]
	]
}`

func TestParse_Coordinates(t *testing.T) {
	c, err := Parse([]byte(riversideLoop))
	require.NoError(t, err)

	assert.Equal(t, "han-river-loop", c.ID)
	require.Len(t, c.Waypoints, 3)
	require.Len(t, c.Path, 3)

	// GeoJSON [lng, lat] order is flipped into Point{lat, lng}
	assert.Equal(t, 37.5124, c.Path[0].Latitude)
	assert.Equal(t, 126.9956, c.Path[0].Longitude)

	assert.Equal(t, c.Waypoints[0], c.Start())
	assert.Equal(t, c.Waypoints[2], c.End())
}

func TestParse_EncodedPolyline(t *testing.T) {
	data := `{
		"id": "encoded",
		"name": "Encoded course",
		"waypoints": [
			{"lat": 38.5, "lng": -120.2, "order": 0},
			{"lat": 43.252, "lng": -126.453, "order": 1}
		],
		"encoded_polyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"
	}`

	c, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, c.Path, 3)
	assert.InDelta(t, 38.5, c.Path[0].Latitude, 0.001)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{
			"too few waypoints",
			`{"waypoints": [{"lat": 0, "lng": 0, "order": 0}],
			  "path_coordinates": [[0, 0], [0.001, 0]]}`,
			guidance.ErrTooFewWaypoints,
		},
		{
			"missing path",
			`{"waypoints": [
				{"lat": 0, "lng": 0, "order": 0},
				{"lat": 0, "lng": 0.001, "order": 1}]}`,
			guidance.ErrEmptyPath,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("misordered waypoints", func(t *testing.T) {
		_, err := Parse([]byte(`{
			"waypoints": [
				{"lat": 0, "lng": 0, "order": 1},
				{"lat": 0, "lng": 0.001, "order": 0}],
			"path_coordinates": [[0, 0], [0.001, 0]]}`))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Parse([]byte("{not json"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.json")
	require.NoError(t, os.WriteFile(path, []byte(riversideLoop), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Han River Loop", c.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCourse_Length(t *testing.T) {
	c, err := Parse([]byte(riversideLoop))
	require.NoError(t, err)

	length, err := c.Length()
	require.NoError(t, err)
	// Banpo to Jamsil along the river, roughly 7.7km as two segments
	assert.InDelta(t, 7700, length, 200)
}
