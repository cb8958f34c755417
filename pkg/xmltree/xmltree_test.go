//nolint:funlen // by design
package xmltree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<rFactorXML version="1.0">
  <RaceResults>
    <TrackVenue>Spa</TrackVenue>
    <Race>
      <Driver><Name>A</Name></Driver>
      <Driver><Name>B</Name>
        <Lap num="1" p="2" s1="30.1">90.5</Lap>
        <Lap num="2">--.----</Lap>
      </Driver>
    </Race>
    <Qualify><Driver><Name>A</Name></Driver></Qualify>
  </RaceResults>
</rFactorXML>`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(sample))
	require.NoError(t, err)

	root := doc.Path("rFactorXML", "RaceResults")
	require.NotNil(t, root)
	assert.Equal(t, "Spa", root.TextOf("TrackVenue"))
	assert.Equal(t, []string{"TrackVenue", "Race", "Qualify"}, root.Keys())

	drivers := root.Child("Race").Children("Driver")
	require.Len(t, drivers, 2)
	assert.Equal(t, "B", drivers[1].TextOf("Name"))

	laps := drivers[1].Children("Lap")
	require.Len(t, laps, 2)
	v, ok := laps[0].Attr("s1")
	assert.True(t, ok)
	assert.Equal(t, "30.1", v)
	assert.Equal(t, "90.5", laps[0].Text)
	assert.Equal(t, "--.----", laps[1].Text)
	assert.True(t, laps[0].HasAttrs())
}

func TestSingleChildIsList(t *testing.T) {
	doc, err := Decode([]byte(`<R><Race><Driver><Name>X</Name></Driver></Race></R>`))
	require.NoError(t, err)
	got := doc.Path("R", "Race").Children("Driver")
	assert.Len(t, got, 1)
}

func TestNilSafe(t *testing.T) {
	var n *Node
	assert.Nil(t, n.Child("x"))
	assert.Nil(t, n.Children("x"))
	assert.Nil(t, n.Path("a", "b"))
	assert.Equal(t, "", n.TextOf("x"))
	_, ok := n.Attr("x")
	assert.False(t, ok)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"truncated", "<a><b></a>"},
		{"garbage", "not xml at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeLatin1(t *testing.T) {
	// "Müller" in ISO-8859-1
	data := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><R><Name>M`),
		0xfc)
	data = append(data, []byte(`ller</Name></R>`)...)
	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Müller", doc.Path("R").TextOf("Name"))
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(
		`<Stream><Score et="1.0">a</Score><DriverChange et="2">Slot=1</DriverChange><Score et="3">b</Score></Stream>`))
	require.NoError(t, err)
	stream := doc.Child("Stream")
	raw, err := stream.Bytes()
	require.NoError(t, err)

	again, err := Decode(raw)
	require.NoError(t, err)
	if diff := cmp.Diff(stream, again.Child("Stream")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	names := []string{}
	for _, c := range again.Child("Stream").Nodes {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Score", "DriverChange", "Score"}, names)
}
