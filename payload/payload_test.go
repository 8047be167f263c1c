package payload

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-projects-backend/errs"
)

const projectJSON = `{"title":"Portfolio","dashboardUrl":"https://d.example.com","tech":["Go","SQL"]}`

func byteList(s string) []any {
	out := make([]any, 0, len(s))
	for _, b := range []byte(s) {
		out = append(out, float64(b))
	}
	return out
}

func TestRecordEncodings(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(projectJSON), &decoded))

	doubleEncoded, err := json.Marshal(projectJSON)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  any
	}{
		{name: "structured object", raw: decoded},
		{name: "json text", raw: projectJSON},
		{name: "json bytes", raw: []byte(projectJSON)},
		{name: "raw message", raw: json.RawMessage(projectJSON)},
		{name: "double encoded json", raw: string(doubleEncoded)},
		{name: "byte array", raw: byteList(projectJSON)},
		{name: "buffer object", raw: map[string]any{"type": "Buffer", "data": byteList(projectJSON)}},
		{name: "base64", raw: base64.StdEncoding.EncodeToString([]byte(projectJSON))},
		{name: "json as form key", raw: map[string]any{projectJSON: ""}},
		{name: "form text", raw: "title=Portfolio&dashboardUrl=https%3A%2F%2Fd.example.com&tech=Go&tech=SQL"},
		{name: "bracketed form", raw: "title=Portfolio&dashboardUrl=https%3A%2F%2Fd.example.com&tech[]=Go&tech[]=SQL"},
		{name: "url values", raw: url.Values{"title": {"Portfolio"}, "dashboardUrl": {"https://d.example.com"}, "tech[]": {"Go", "SQL"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record(tt.raw)
			require.NotNil(t, record)
			assert.Equal(t, "Portfolio", record["title"])
			assert.Equal(t, "https://d.example.com", record["dashboardUrl"])
			assert.Equal(t, []any{"Go", "SQL"}, record["tech"])
		})
	}
}

func TestRecordCanonicalizesKeys(t *testing.T) {
	record := Record(`{"TITLE":"A","dashboardurl":"d","Clicks_CodeUrl":5,"extra":1}`)
	assert.Equal(t, "A", record["title"])
	assert.Equal(t, "d", record["dashboardUrl"])
	assert.Equal(t, float64(5), record["clicks_codeUrl"])
	assert.Equal(t, float64(1), record["extra"])
}

func TestRecordUnparseableIsEmpty(t *testing.T) {
	for _, raw := range []any{nil, "", "   ", "not a payload", 42, "foo=bar", []byte{0xff, 0xfe}, map[string]any{}} {
		assert.Empty(t, Record(raw), "%#v", raw)
	}
}

func TestObjectWithKeys(t *testing.T) {
	obj := Object("password=hunter2", "password")
	assert.Equal(t, "hunter2", obj["password"])

	obj = Object(`{"password":"hunter2"}`, "password")
	assert.Equal(t, "hunter2", obj["password"])

	assert.Nil(t, Object("user=x", "password"))

	empty := Object("{}", "password")
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{name: "object", raw: `{"titles":["A","C"]}`, want: []string{"A", "C"}},
		{name: "bare array", raw: `["A","C"]`, want: []string{"A", "C"}},
		{name: "structured", raw: map[string]any{"titles": []any{"A", "C"}}, want: []string{"A", "C"}},
		{name: "repeated form keys", raw: "titles=A&titles=C", want: []string{"A", "C"}},
		{name: "bracketed form keys", raw: "titles[]=A&titles[]=C", want: []string{"A", "C"}},
		{name: "single form value", raw: "titles=A", want: []string{"A"}},
		{name: "titles as json text", raw: map[string]any{"titles": `["A","C"]`}, want: []string{"A", "C"}},
		{name: "byte array", raw: byteList(`{"titles":["A","C"]}`), want: []string{"A", "C"}},
		{name: "trims and dedupes", raw: `{"titles":[" A ","A","","C","   "]}`, want: []string{"A", "C"}},
		{name: "non strings skipped", raw: `{"titles":["A",1,null,"C"]}`, want: []string{"A", "C"}},
		{name: "empty", raw: `{"titles":[]}`, want: []string{}},
		{name: "missing", raw: `{"other":["A"]}`, want: []string{}},
		{name: "garbage", raw: "???", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Titles(tt.raw))
		})
	}
}

func TestRead(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(projectJSON))
	body, err := Read(httptest.NewRecorder(), r, 0)
	require.NoError(t, err)
	assert.Equal(t, projectJSON, string(body))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	_, err = Read(httptest.NewRecorder(), r, 16)
	require.Error(t, err)
	assert.True(t, errs.IsMaxBodySizeExceededError(err))
	assert.Equal(t, http.StatusRequestEntityTooLarge, errs.StatusCode(err))
}
