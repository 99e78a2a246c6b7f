package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray_RoundTrip(t *testing.T) {
	in := StringArray{"3", "8", "19"}
	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, "{3,8,19}", v)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestStringArray_ScanQuotedAndEmpty(t *testing.T) {
	var s StringArray
	require.NoError(t, s.Scan([]byte(`{"loan","debt"}`)))
	assert.Equal(t, StringArray{"loan", "debt"}, s)

	require.NoError(t, s.Scan("{}"))
	assert.Empty(t, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}

func TestStringArray_ElementsWithSeparators(t *testing.T) {
	var s StringArray
	require.NoError(t, s.Scan(`{"Murabaha, Musawamah",riba}`))
	assert.Equal(t, StringArray{"Murabaha, Musawamah", "riba"}, s)

	in := StringArray{"Murabaha, Musawamah", `say "riba"`, "{braces}", `back\slash`}
	v, err := in.Value()
	require.NoError(t, err)
	assert.Contains(t, v, `"Murabaha, Musawamah"`)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestStringArray_ScanMalformed(t *testing.T) {
	var s StringArray
	assert.Error(t, s.Scan(`{"unterminated`))
}

func TestTopicFilter_Validate(t *testing.T) {
	tf := &TopicFilter{Name: "money", Keywords: StringArray{"loan"}, StandardNumbers: StringArray{"19"}}
	assert.NoError(t, tf.Validate())

	assert.Error(t, (&TopicFilter{Keywords: StringArray{"loan"}}).Validate())
	assert.Error(t, (&TopicFilter{Name: "x", StandardNumbers: StringArray{"1"}}).Validate())
	assert.Error(t, (&TopicFilter{Name: "x", Keywords: StringArray{"loan"}}).Validate())
}
