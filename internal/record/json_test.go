package record

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValue_SortsKeys(t *testing.T) {
	obj := Object{
		"quantity": Int(5),
		"name":     String("Acme"),
		"active":   Bool(true),
	}

	data, err := MarshalValue(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"active":true,"name":"Acme","quantity":5}`, string(data))
}

func TestMarshalValue_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalValue(String("Farm <North> & Sons"))
	require.NoError(t, err)
	assert.Equal(t, `"Farm <North> & Sons"`, string(data))
}

func TestMarshalValue_FloatKeepsFraction(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5.0"},
		{-0.5, "-0.5"},
		{1.25, "1.25"},
		{-1.2921, "-1.2921"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		data, err := MarshalValue(Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data), "Float(%v)", tt.in)
	}
}

func TestMarshalValue_RejectsNonFinite(t *testing.T) {
	_, err := MarshalValue(Object{"lat": Float(math.NaN())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lat")

	_, err = MarshalValue(Float(math.Inf(1)))
	require.Error(t, err)
}

func TestMarshalValue_RejectsNil(t *testing.T) {
	_, err := MarshalValue(Array{String("a"), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestUnmarshalValue_IntFloatDistinct(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a":5,"b":5.0,"c":2e3}`))
	require.NoError(t, err)

	obj := v.(Object)
	assert.Equal(t, Int(5), obj["a"])
	assert.Equal(t, Float(5), obj["b"])
	assert.Equal(t, Float(2000), obj["c"])
}

func TestUnmarshalValue_Null(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"farmGeoLocation":null}`))
	require.NoError(t, err)
	assert.Equal(t, Null{}, v.(Object)["farmGeoLocation"])
}

func TestUnmarshalValue_TrailingData(t *testing.T) {
	_, err := UnmarshalValue([]byte(`[1,2] [3]`))
	require.Error(t, err)

	_, err = UnmarshalValue([]byte("[1,2]\n  "))
	require.NoError(t, err)
}

func TestUnmarshalValue_IntOverflow(t *testing.T) {
	_, err := UnmarshalValue([]byte(`99999999999999999999`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int64")
}

func TestRoundTrip_PreservesRecord(t *testing.T) {
	rec := Record{
		"aggregatorName":        String("Acme Produce"),
		"aggregatorGeoLocation": GeoCoordinate{Latitude: -1.2921, Longitude: 36.8219}.Value(),
		"maleEmployees":         String("12"),
		"commodities": Array{
			Object{"name": String("maize"), "quantity": String("40")},
			Object{"name": String("beans"), "quantity": String("12")},
		},
		"verified": Bool(false),
		"score":    Float(3),
		"count":    Int(3),
		"notes":    Null{},
	}

	data, err := MarshalValue(rec)
	require.NoError(t, err)

	back, err := UnmarshalValue(data)
	require.NoError(t, err)
	assert.True(t, Equal(rec, back), "round trip changed record:\n%s", data)
}

func TestObjectJSONInterop(t *testing.T) {
	in := []byte(`{"name":"Beta","quantity":2}`)

	var obj Object
	require.NoError(t, json.Unmarshal(in, &obj))
	assert.Equal(t, Object{"name": String("Beta"), "quantity": Int(2)}, obj)

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestObjectUnmarshalJSON_RejectsNonObject(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`[1]`), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}
