package csvcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"id", "request", "response", "star"}

func TestParse_EmptyDocuments(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "\n\n"},
		{name: "header only", text: "id,request,response,star\n"},
		{name: "header without newline", text: "id,request,response,star"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Parse(tt.text)
			require.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	records := []Record{
		{"id": "20250101120000", "request": "plain", "response": "", "star": "5"},
		{"id": "20250101120001", "request": "a, b, c", "response": `she said "hi"`, "star": ""},
		{"id": "20250101120002", "request": "line one\nline two", "response": "\"quoted\",\n\"again\"", "star": "3"},
		{"id": "20250101120003", "request": "windows\r\nline", "response": "한국어, 텍스트", "star": "1"},
		{"id": "20250101120004", "request": `""`, "response": ",", "star": ""},
	}

	text := Serialize(records, testColumns)
	got := Parse(text)

	assert.Equal(t, records, got)
}

func FuzzRoundTrip(f *testing.F) {
	f.Add("20250101120000", "plain", "", "5")
	f.Add("", "", "", "")
	f.Add("a,b", `say "hi"`, "line\nbreak", "\r")
	f.Add("\r\n", `""`, ",,,", "\"\n,\r\"")
	f.Add("trailing\r", "\n", `"`, ", ")

	f.Fuzz(func(t *testing.T, id, request, response, star string) {
		records := []Record{
			{"id": id, "request": request, "response": response, "star": star},
			{"id": star, "request": response, "response": request, "star": id},
		}

		got := Parse(Serialize(records, testColumns))

		assert.Equal(t, records, got)
	})
}

func TestSerialize_HeaderFollowsColumnOrder(t *testing.T) {
	records := []Record{{"star": "4", "id": "1"}}

	text := Serialize(records, testColumns)

	assert.Equal(t, "id,request,response,star\n1,,,4\n", text)
}

func TestSerialize_NoRecords(t *testing.T) {
	assert.Equal(t, "id,request,response,star\n", Serialize(nil, testColumns))
}

func TestSerialize_SingleEmptyColumn(t *testing.T) {
	records := []Record{{"id": ""}, {"id": "x"}}

	got := Parse(Serialize(records, []string{"id"}))

	assert.Equal(t, records, got)
}

func TestParse_TrailingRowWithoutNewline(t *testing.T) {
	text := "id,request\n1,first\n2,\"second, with comma\""

	records := Parse(text)

	require.Len(t, records, 2)
	assert.Equal(t, "second, with comma", records[1]["request"])
}

func TestParse_UnterminatedQuoteIsCaptured(t *testing.T) {
	text := "id,request\n1,\"never closed\nstill going"

	records := Parse(text)

	require.Len(t, records, 1)
	assert.Equal(t, "never closed\nstill going", records[0]["request"])
}

func TestParse_ShortAndLongRows(t *testing.T) {
	text := "id,request,response\n1\n2,a,b,extra\n"

	records := Parse(text)

	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": "1", "request": "", "response": ""}, records[0])
	assert.Equal(t, Record{"id": "2", "request": "a", "response": "b"}, records[1])
}

func TestParse_SkipsBlankLines(t *testing.T) {
	text := "id,request\n\n1,a\n\n2,b\n"

	records := Parse(text)

	require.Len(t, records, 2)
	assert.Equal(t, "b", records[1]["request"])
}

func TestHeader(t *testing.T) {
	assert.Nil(t, Header(""))
	assert.Equal(t, []string{"id", "project_name"}, Header("id,project_name\n1,x\n"))
}
