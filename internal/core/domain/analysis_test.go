package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFrame = Frame{Width: 100, Height: 100}

// centredBox returns a box centred in testFrame with the given side, so its
// weight is side^2 / 10000.
func centredBox(side float64) BBox {
	half := side / 2
	return BBox{X1: 50 - half, Y1: 50 - half, X2: 50 + half, Y2: 50 + half}
}

func mustDetection(t *testing.T, label string, side float64) Detection {
	t.Helper()
	d, err := NewDetection(label, centredBox(side), testFrame)
	require.NoError(t, err)
	return d
}

func labels(ds []Detection) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Label()
	}
	return out
}

func TestNewImageAnalysis_SortsDescending(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "small", 20),
		mustDetection(t, "large", 90),
		mustDetection(t, "medium", 50),
	})

	assert.Equal(t, []string{"large", "medium", "small"}, labels(a.Detections()))
	assert.Equal(t, "/img.jpg", a.Filename())
	assert.False(t, a.Failed())
	assert.NoError(t, a.Err())
}

func TestNewImageAnalysis_StableOnTies(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "first", 40),
		mustDetection(t, "big", 80),
		mustDetection(t, "second", 40),
		mustDetection(t, "third", 40),
	})

	assert.Equal(t, []string{"big", "first", "second", "third"}, labels(a.Detections()))
}

func TestTopDetections_TopN(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "a", 90),
		mustDetection(t, "b", 70),
		mustDetection(t, "c", 50),
		mustDetection(t, "d", 30),
	})

	tests := []struct {
		n        float64
		expected []string
	}{
		{0, []string{}},
		{1, []string{"a"}},
		{3, []string{"a", "b", "c"}},
		{10, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		top, err := a.TopDetections(Selection{Method: SelectionTopN, Param: tt.n})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, labels(top), "n=%v", tt.n)
		assert.Len(t, top, min(int(tt.n), 4))
	}
}

func TestTopDetections_RelativeThreshold(t *testing.T) {
	// Weights 0.81, 0.09, 0.09, 0.01 -> normalised 0.81, 0.09, 0.09, 0.01
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "a", 90),
		mustDetection(t, "b", 30),
		mustDetection(t, "c", 30),
		mustDetection(t, "d", 10),
	})

	tests := []struct {
		threshold float64
		expected  []string
	}{
		{0.5, []string{"a"}},
		{0.8, []string{"a"}},
		{0.85, []string{"a", "b"}},
		{0.95, []string{"a", "b", "c"}},
		{1.0, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		top, err := a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: tt.threshold})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, labels(top), "threshold=%v", tt.threshold)
	}
}

func TestTopDetections_RelativeThresholdPrefixIsMinimal(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "a", 60),
		mustDetection(t, "b", 55),
		mustDetection(t, "c", 50),
		mustDetection(t, "d", 45),
		mustDetection(t, "e", 40),
	})
	all := a.Detections()
	var total float64
	for _, d := range all {
		total += d.Weight()
	}

	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 0.99} {
		top, err := a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: threshold})
		require.NoError(t, err)
		require.NotEmpty(t, top)

		var cumulative float64
		for _, d := range top {
			cumulative += d.Weight() / total
		}
		assert.GreaterOrEqual(t, cumulative+epsilon, threshold)

		if len(top) > 1 {
			withoutLast := cumulative - top[len(top)-1].Weight()/total
			assert.Less(t, withoutLast, threshold)
		}
	}
}

func TestTopDetections_RelativeThresholdUniformWeights(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "a", 40),
		mustDetection(t, "b", 40),
		mustDetection(t, "c", 40),
		mustDetection(t, "d", 40),
		mustDetection(t, "e", 40),
	})

	top, err := a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 0.8})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, labels(top))
}

func TestTopDetections_ZeroTotalWeight(t *testing.T) {
	// The area of a 1e-200 box underflows to zero.
	speck, err := NewDetection("speck", BBox{X1: 0, Y1: 0, X2: 1e-200, Y2: 1e-200}, testFrame)
	require.NoError(t, err)
	require.Zero(t, speck.Weight())
	a := NewImageAnalysis("/img.jpg", []Detection{speck, speck, speck, speck})

	top, err := a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 0.5})

	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestTopDetections_FailedAnalysis(t *testing.T) {
	a := NewFailedAnalysis("/broken.jpg", errors.New("unidentified image"))

	assert.True(t, a.Failed())
	assert.Nil(t, a.Detections())
	for _, sel := range []Selection{
		{Method: SelectionTopN, Param: 3},
		{Method: SelectionRelativeThreshold, Param: 0.8},
		{Method: "bogus", Param: 1},
	} {
		top, err := a.TopDetections(sel)
		require.NoError(t, err)
		assert.Empty(t, top)
		assert.NotNil(t, top)
	}
}

func TestNewFailedAnalysis_DefaultCause(t *testing.T) {
	a := NewFailedAnalysis("/broken.jpg", nil)

	assert.ErrorIs(t, a.Err(), ErrAnalysisFailed)
}

func TestTopDetections_EmptyIsNotFailure(t *testing.T) {
	a := NewImageAnalysis("/empty.jpg", nil)

	assert.False(t, a.Failed())
	top, err := a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 0.8})
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestTopDetections_InvalidSelection(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{mustDetection(t, "a", 50)})

	_, err := a.TopDetections(Selection{Method: "random", Param: 1})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = a.TopDetections(Selection{Method: SelectionTopN, Param: 1.5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 1.2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTopDetections_Memoized(t *testing.T) {
	a := NewImageAnalysis("/img.jpg", []Detection{
		mustDetection(t, "a", 90),
		mustDetection(t, "b", 50),
	})
	sel := Selection{Method: SelectionTopN, Param: 1}

	first, err := a.TopDetections(sel)
	require.NoError(t, err)
	assert.Len(t, a.cache, 1)

	// Mutating a returned slice must not affect the cached result
	first[0] = mustDetection(t, "intruder", 10)

	second, err := a.TopDetections(sel)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, labels(second))
	assert.Len(t, a.cache, 1)

	_, err = a.TopDetections(Selection{Method: SelectionRelativeThreshold, Param: 0.8})
	require.NoError(t, err)
	assert.Len(t, a.cache, 2)
}

func TestBuildImageAnalysis_DropsInvalidGeometry(t *testing.T) {
	raw := RawAnalysis{
		Path:  "/img.jpg",
		Frame: testFrame,
		Detections: []RawDetection{
			{Label: "cat", BBox: centredBox(80)},
			{Label: "ghost", BBox: BBox{X1: 10, Y1: 10, X2: 10, Y2: 20}},
			{Label: "dog", BBox: centredBox(40)},
		},
	}

	a, dropped := BuildImageAnalysis(raw)

	assert.Equal(t, []string{"cat", "dog"}, labels(a.Detections()))
	require.Len(t, dropped, 1)
	assert.Equal(t, "ghost", dropped[0].Raw.Label)
	assert.ErrorIs(t, dropped[0].Err, ErrInvalidGeometry)
}

func TestBuildImageAnalysis_InvalidFrameDropsAll(t *testing.T) {
	raw := RawAnalysis{
		Path:       "/img.jpg",
		Frame:      Frame{},
		Detections: []RawDetection{{Label: "cat", BBox: centredBox(80)}},
	}

	a, dropped := BuildImageAnalysis(raw)

	assert.Empty(t, a.Detections())
	assert.False(t, a.Failed())
	assert.Len(t, dropped, 1)
}

func TestSelection_String(t *testing.T) {
	assert.Equal(t, "top_n(3)", DefaultSelection().String())
	assert.Equal(t, 0.8, SelectionRelativeThreshold.DefaultParam())
	assert.Equal(t, 3.0, SelectionTopN.DefaultParam())
}
