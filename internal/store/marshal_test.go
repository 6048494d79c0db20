package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
)

func TestMarshalRecords_IsDeterministic(t *testing.T) {
	a, err := marshalRecords(sampleRecords())
	require.NoError(t, err)
	b, err := marshalRecords(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMarshalRecords_NoHTMLEscaping(t *testing.T) {
	r := record.New("p-1")
	r.Set("name", record.NewString("Bread & Butter <fresh>"))

	payload, err := marshalRecords([]record.Record{r})
	require.NoError(t, err)

	assert.Contains(t, payload, "Bread & Butter <fresh>")
	assert.NotContains(t, payload, "\\u0026")
	assert.NotContains(t, payload, "\\u003c")
}

func TestMarshalRecords_EmptyCollection(t *testing.T) {
	payload, err := marshalRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", payload)
}

func TestUnmarshalRecords_TimePrecision(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	r := record.New("p-1")
	r.Set(record.UpdatedAtField, record.NewTime(stamp))

	payload, err := marshalRecords([]record.Record{r})
	require.NoError(t, err)

	loaded, err := unmarshalRecords(productSchema(), payload)
	require.NoError(t, err)
	v, _ := loaded[0].Get(record.UpdatedAtField)
	assert.True(t, record.Equal(record.NewTime(stamp), v))
}

func TestUnmarshalRecords_EmptyIDRejected(t *testing.T) {
	_, err := unmarshalRecords(productSchema(), `[{"id":"","fields":{}}]`)
	assert.ErrorContains(t, err, "empty id")
}

func TestUnmarshalRecords_TypeMismatchRejected(t *testing.T) {
	_, err := unmarshalRecords(productSchema(), `[{"id":"p-1","fields":{"price":"cheap"}}]`)
	assert.Error(t, err)
}

func TestUnmarshalRecords_MalformedPayload(t *testing.T) {
	_, err := unmarshalRecords(productSchema(), `{not json`)
	assert.Error(t, err)
}
